package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureSet 按帧平均后的频谱特征
type FeatureSet struct {
	CentroidHz     float64 `json:"centroidHz"`
	BandwidthHz    float64 `json:"bandwidthHz"`
	RolloffHz      float64 `json:"rolloffHz"`
	RolloffPercent float64 `json:"rolloffPercent"`
	Flatness       float64 `json:"flatness"`
	Frames         int     `json:"frames"`
	SilentFrames   int     `json:"silentFrames"`
}

// Feature 报告中的一行特征
type Feature struct {
	Name  string
	Value float64
}

// Table 按固定顺序返回特征名称和数值
func (f FeatureSet) Table() []Feature {
	return []Feature{
		{Name: "Spectral Centroid", Value: f.CentroidHz},
		{Name: "Spectral Bandwidth", Value: f.BandwidthHz},
		{Name: fmt.Sprintf("Spectral Rolloff (%.0f%%)", f.RolloffPercent*100), Value: f.RolloffHz},
		{Name: "Spectral Flatness", Value: f.Flatness},
	}
}

// Centroid 频谱质心 Σf·M/ΣM，静音帧为 0
func Centroid(frame, freqs []float64) float64 {
	total := floats.Sum(frame)
	if total == 0 {
		return 0
	}
	return floats.Dot(freqs[:len(frame)], frame) / total
}

// Bandwidth 以质心为中心的频谱带宽，静音帧返回 NaN
func Bandwidth(frame, freqs []float64, centroid float64) float64 {
	total := floats.Sum(frame)
	if total == 0 {
		return math.NaN()
	}

	weighted := 0.0
	for k, v := range frame {
		diff := freqs[k] - centroid
		weighted += diff * diff * v
	}
	return math.Sqrt(weighted / total)
}

// Rolloff 累计幅度达到总量 percent 的最低频率，只考虑非零频点；静音帧返回 NaN
func Rolloff(frame, freqs []float64, percent float64) float64 {
	total := floats.Sum(frame)
	if total == 0 {
		return math.NaN()
	}

	threshold := percent * total
	cumulative := 0.0
	last := math.NaN()
	for k, v := range frame {
		cumulative += v
		if v <= 0 {
			continue
		}
		last = freqs[k]
		if cumulative >= threshold {
			return freqs[k]
		}
	}

	// 累加顺序不同导致的舍入误差，返回最高的非零频点
	return last
}

// Flatness 频谱平坦度（几何平均/算术平均），跳过直流频点；无能量时返回 NaN
func Flatness(frame []float64) float64 {
	if len(frame) < 2 {
		return math.NaN()
	}

	bins := frame[1:]
	mean := stat.Mean(bins, nil)
	if mean == 0 {
		return math.NaN()
	}
	for _, v := range bins {
		if v <= 0 {
			return 0
		}
	}
	return stat.GeometricMean(bins, nil) / mean
}

// ExtractFeatures 逐帧计算特征并取时间平均
//
// 各特征互相独立：某帧某个特征无定义 (NaN) 时只把该帧从这个特征的平均中剔除。
func ExtractFeatures(m *MagnitudeSpectrogram, rolloffPercent float64) FeatureSet {
	freqs := m.Frequencies()
	frames := m.Frames()

	centroids := make([]float64, frames)
	bandwidths := make([]float64, frames)
	rolloffs := make([]float64, frames)
	flatness := make([]float64, frames)
	silent := 0

	for t, frame := range m.Data {
		if floats.Sum(frame) == 0 {
			silent++
		}
		centroids[t] = Centroid(frame, freqs)
		bandwidths[t] = Bandwidth(frame, freqs, centroids[t])
		rolloffs[t] = Rolloff(frame, freqs, rolloffPercent)
		flatness[t] = Flatness(frame)
	}

	return FeatureSet{
		CentroidHz:     meanDefined(centroids),
		BandwidthHz:    meanDefined(bandwidths),
		RolloffHz:      meanDefined(rolloffs),
		RolloffPercent: rolloffPercent,
		Flatness:       meanDefined(flatness),
		Frames:         frames,
		SilentFrames:   silent,
	}
}

// meanDefined 忽略 NaN 求平均，没有有效值时返回 0
func meanDefined(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return 0
	}
	return stat.Mean(defined, nil)
}
