package spectral

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// RatioResult 高频能量比检测结果
type RatioResult struct {
	Ratio     float64 `json:"ratio"`     // 截止频率以上的平均幅度 / 全频段平均幅度
	Share     float64 `json:"share"`     // 截止频率以上的幅度总和占全部幅度的比例
	CutoffHz  float64 `json:"cutoffHz"`  // 使用的截止频率
	CutoffBin int     `json:"cutoffBin"` // 第一个高于截止频率的频点
}

// CutoffBin 返回第一个频率严格大于 cutoffHz 的频点下标
func CutoffBin(freqs []float64, cutoffHz float64) (int, error) {
	idx := sort.Search(len(freqs), func(i int) bool { return freqs[i] > cutoffHz })
	if idx == len(freqs) {
		nyquist := 0.0
		if len(freqs) > 0 {
			nyquist = freqs[len(freqs)-1]
		}
		return 0, fmt.Errorf("%w: 截止频率 %.0f Hz 不低于奈奎斯特频率 %.0f Hz", ErrThresholdUnreachable, cutoffHz, nyquist)
	}
	return idx, nil
}

// HighFrequencyRatio 计算截止频率以上的能量占比
//
// 各帧先求部分和，再按帧顺序合并，只使用线性幅度。
func HighFrequencyRatio(m *MagnitudeSpectrogram, cutoffHz float64) (RatioResult, error) {
	if m.Frames() == 0 {
		return RatioResult{}, fmt.Errorf("%w: 幅度谱为空", ErrInvalidInput)
	}

	idx, err := CutoffBin(m.Frequencies(), cutoffHz)
	if err != nil {
		return RatioResult{}, err
	}

	var highSum, totalSum float64
	for _, frame := range m.Data {
		highSum += floats.Sum(frame[idx:])
		totalSum += floats.Sum(frame)
	}

	if totalSum == 0 {
		return RatioResult{}, fmt.Errorf("%w: 全部频点幅度为零", ErrDegenerateSignal)
	}

	bins := m.Bins()
	frames := float64(m.Frames())
	highEnergy := highSum / (frames * float64(bins-idx))
	totalEnergy := totalSum / (frames * float64(bins))

	return RatioResult{
		Ratio:     highEnergy / totalEnergy,
		Share:     highSum / totalSum,
		CutoffHz:  cutoffHz,
		CutoffBin: idx,
	}, nil
}
