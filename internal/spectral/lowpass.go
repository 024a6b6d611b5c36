package spectral

import "math"

// 常见有损编码器的低通截止频率
var lossyCutoffs = []struct {
	freq  float64
	codec string
}{
	{15500, "AAC 128kbps"},
	{16000, "MP3 128kbps"},
	{17000, "MP3 160kbps"},
	{18000, "MP3 192kbps / AAC 192kbps"},
	{19000, "MP3 256kbps / AAC 256kbps"},
	{20000, "MP3 320kbps"},
	{20500, "Opus 128kbps"},
}

const (
	noiseFloorFactor    = 10   // 有效频率阈值为噪声基底的 10 倍
	cutoffPowerFraction = 0.01 // 截断判定阈值为最大功率的 1%
	requiredConsecutive = 10   // 连续低于阈值的频点数
	codecTolerance      = 500  // 匹配已知截断频率的容差 (Hz)
)

// Lowpass 低通截断估计，仅作参考，不参与判定
type Lowpass struct {
	MaxFrequencyHz float64 `json:"maxFrequencyHz"`      // 最高有效频率
	CutoffHz       float64 `json:"cutoffHz"`            // 功率急剧下降的位置
	CodecHint      string  `json:"codecHint,omitempty"` // 接近的有损编码截断频率
}

// EstimateLowpass 在按帧平均的功率谱上估计低通截断位置
func EstimateLowpass(m *MagnitudeSpectrogram) Lowpass {
	mean := m.MeanSpectrum()
	if len(mean) < 2 {
		return Lowpass{}
	}

	power := make([]float64, len(mean))
	for k, v := range mean {
		power[k] = v * v
	}

	resolution := float64(m.SampleRate) / float64(m.FFTSize)
	maxFreq := maxEffectiveFrequency(power, resolution)

	return Lowpass{
		MaxFrequencyHz: maxFreq,
		CutoffHz:       detectCutoff(power, resolution),
		CodecHint:      codecHint(maxFreq, float64(m.SampleRate)/2),
	}
}

// maxEffectiveFrequency 从高频往低频找最后一个显著高于噪声基底的频点
//
// 没有频点超过阈值说明高频段与其余频段一样响，按满频带处理。
func maxEffectiveFrequency(power []float64, resolution float64) float64 {
	threshold := noiseFloor(power) * noiseFloorFactor
	for k := len(power) - 1; k >= 0; k-- {
		if power[k] > threshold {
			return float64(k) * resolution
		}
	}
	return float64(len(power)-1) * resolution
}

// detectCutoff 从高频往低频跳过连续低于阈值的频点，返回低功率区的下沿
func detectCutoff(power []float64, resolution float64) float64 {
	peak := 0.0
	for _, p := range power {
		peak = math.Max(peak, p)
	}
	threshold := peak * cutoffPowerFraction

	consecutive := 0
	for k := len(power) - 1; k >= 0; k-- {
		if power[k] < threshold {
			consecutive++
			continue
		}
		if consecutive >= requiredConsecutive {
			return float64(k+1) * resolution
		}
		break
	}

	return float64(len(power)-1) * resolution
}

// noiseFloor 取功率谱最后 10% 的平均值作为噪声基底
func noiseFloor(power []float64) float64 {
	start := len(power) * 9 / 10
	if start >= len(power) {
		return 0
	}

	sum := 0.0
	for _, p := range power[start:] {
		sum += p
	}
	return sum / float64(len(power)-start)
}

// codecHint 返回与 maxFreq 最接近的已知截断频率对应的编码器
func codecHint(maxFreq, nyquist float64) string {
	best := ""
	bestDist := math.Inf(1)
	for _, c := range lossyCutoffs {
		if c.freq >= nyquist {
			continue
		}
		dist := math.Abs(maxFreq - c.freq)
		if dist < codecTolerance && dist < bestDist {
			best = c.codec
			bestDist = dist
		}
	}
	return best
}
