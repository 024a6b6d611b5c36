package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// 对比报告使用的频段边界 (Hz)
var compareBandEdges = []float64{0, 4000, 8000, 12000, 16000, 20000}

// BandDifference 单个频段的平均分贝差
type BandDifference struct {
	LowHz  float64 `json:"lowHz"`
	HighHz float64 `json:"highHz"`
	MeanDB float64 `json:"meanDb"`
}

// Comparison 两个文件的频谱对比（A - B）
type Comparison struct {
	SampleRate          int              `json:"sampleRate"`
	Frames              int              `json:"frames"`
	Difference          [][]float64      `json:"-"` // [帧][频点] 分贝差
	Bands               []BandDifference `json:"bands"`
	MeanAbsDifferenceDB float64          `json:"meanAbsDifferenceDb"`
	SpectralCorrelation float64          `json:"spectralCorrelation"`
}

// Compare 计算两段波形的分贝谱差异
//
// 两边各自以自身峰值为分贝参考，只比较共同的帧数。
func Compare(a, b Waveform, cfg Config) (*Comparison, error) {
	if a.SampleRate != b.SampleRate {
		return nil, fmt.Errorf("%w: 采样率不一致 (%d vs %d)", ErrInvalidInput, a.SampleRate, b.SampleRate)
	}

	specA, err := STFT(a, cfg)
	if err != nil {
		return nil, err
	}
	specB, err := STFT(b, cfg)
	if err != nil {
		return nil, err
	}

	magA := Magnitude(specA)
	magB := Magnitude(specB)
	dbA := ToDB(magA, 0, cfg.TopDB)
	dbB := ToDB(magB, 0, cfg.TopDB)

	frames := min(len(dbA), len(dbB))
	diff := make([][]float64, frames)
	absSum := 0.0
	for t := range frames {
		row := make([]float64, len(dbA[t]))
		for k := range row {
			row[k] = dbA[t][k] - dbB[t][k]
			absSum += math.Abs(row[k])
		}
		diff[t] = row
	}

	freqs := magA.Frequencies()
	cmp := &Comparison{
		SampleRate: a.SampleRate,
		Frames:     frames,
		Difference: diff,
		Bands:      bandDifferences(diff, freqs, float64(a.SampleRate)/2),
	}
	if frames > 0 {
		cmp.MeanAbsDifferenceDB = absSum / float64(frames*len(freqs))
	}

	corr := stat.Correlation(magA.MeanSpectrum(), magB.MeanSpectrum(), nil)
	if !math.IsNaN(corr) {
		cmp.SpectralCorrelation = corr
	}

	return cmp, nil
}

// bandDifferences 按频段汇总分贝差，最后一个频段延伸到奈奎斯特频率
func bandDifferences(diff [][]float64, freqs []float64, nyquist float64) []BandDifference {
	edges := make([]float64, 0, len(compareBandEdges)+1)
	for _, e := range compareBandEdges {
		if e < nyquist {
			edges = append(edges, e)
		}
	}
	edges = append(edges, nyquist)

	var bands []BandDifference
	for i := 0; i+1 < len(edges); i++ {
		low, high := edges[i], edges[i+1]
		last := i+2 == len(edges)

		sum := 0.0
		count := 0
		for k, f := range freqs {
			if f < low || f > high || (f == high && !last) {
				continue
			}
			for _, row := range diff {
				sum += row[k]
				count++
			}
		}
		if count == 0 {
			continue
		}
		bands = append(bands, BandDifference{LowHz: low, HighHz: high, MeanDB: sum / float64(count)})
	}
	return bands
}
