package spectral

import (
	"math"
	"math/cmplx"
)

// AmplitudeFloor 分贝换算时的最小幅度，避免 log(0)
const AmplitudeFloor = 1e-5

// MagnitudeSpectrogram 幅度谱，形状与 Spectrogram 相同
type MagnitudeSpectrogram struct {
	Data       [][]float64 // [帧][频点]
	SampleRate int
	FFTSize    int
}

// Frames 返回时间帧数
func (m *MagnitudeSpectrogram) Frames() int {
	return len(m.Data)
}

// Bins 返回频点数
func (m *MagnitudeSpectrogram) Bins() int {
	return m.FFTSize/2 + 1
}

// Frequencies 返回频率轴
func (m *MagnitudeSpectrogram) Frequencies() []float64 {
	return FrequencyAxis(m.SampleRate, m.FFTSize)
}

// Max 返回整个幅度谱的最大值
func (m *MagnitudeSpectrogram) Max() float64 {
	peak := 0.0
	for _, row := range m.Data {
		for _, v := range row {
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// MeanSpectrum 返回按帧平均后的幅度谱
func (m *MagnitudeSpectrogram) MeanSpectrum() []float64 {
	mean := make([]float64, m.Bins())
	if len(m.Data) == 0 {
		return mean
	}
	for _, row := range m.Data {
		for k, v := range row {
			mean[k] += v
		}
	}
	for k := range mean {
		mean[k] /= float64(len(m.Data))
	}
	return mean
}

// Magnitude 逐元素取模
func Magnitude(s *Spectrogram) *MagnitudeSpectrogram {
	data := make([][]float64, len(s.Data))
	for t, row := range s.Data {
		mags := make([]float64, len(row))
		for k, c := range row {
			mags[k] = cmplx.Abs(c)
		}
		data[t] = mags
	}

	return &MagnitudeSpectrogram{
		Data:       data,
		SampleRate: s.SampleRate,
		FFTSize:    s.WindowSize,
	}
}

// ToDB 将幅度谱换算为分贝: 20*log10(max(M, ε)/ref)
//
// ref <= 0 时取整个幅度谱的最大值作为参考。topDB > 0 时低于 (峰值 - topDB) 的值被裁剪。
// 只用于可视化与对比，高频能量比始终基于线性幅度计算。
func ToDB(m *MagnitudeSpectrogram, ref, topDB float64) [][]float64 {
	if ref <= 0 {
		ref = m.Max()
	}
	refDB := 20 * math.Log10(math.Max(ref, AmplitudeFloor))

	peakDB := math.Inf(-1)
	db := make([][]float64, len(m.Data))
	for t, row := range m.Data {
		out := make([]float64, len(row))
		for k, v := range row {
			out[k] = 20*math.Log10(math.Max(v, AmplitudeFloor)) - refDB
			peakDB = math.Max(peakDB, out[k])
		}
		db[t] = out
	}

	if topDB > 0 {
		floor := peakDB - topDB
		for _, row := range db {
			for k, v := range row {
				if v < floor {
					row[k] = floor
				}
			}
		}
	}

	return db
}
