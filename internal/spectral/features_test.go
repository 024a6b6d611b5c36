package spectral

import (
	"math"
	"testing"
)

func TestRolloffExtremes(t *testing.T) {
	freqs := FrequencyAxis(16000, 16)
	frame := make([]float64, len(freqs))
	frame[3] = 0.25
	frame[7] = 2

	if got := Rolloff(frame, freqs, 1.0); got != freqs[7] {
		t.Fatalf("p=1: expected highest non-zero bin %v Hz, got %v", freqs[7], got)
	}
	if got := Rolloff(frame, freqs, 0); got != freqs[3] {
		t.Fatalf("p=0: expected lowest non-zero bin %v Hz, got %v", freqs[3], got)
	}
	if got := Rolloff(frame, freqs, 0.85); got != freqs[7] {
		t.Fatalf("p=0.85: expected %v Hz, got %v", freqs[7], got)
	}
	if got := Rolloff(frame, freqs, 0.1); got != freqs[3] {
		t.Fatalf("p=0.1: expected %v Hz, got %v", freqs[3], got)
	}
}

func TestSilentFrame(t *testing.T) {
	freqs := FrequencyAxis(16000, 16)
	frame := make([]float64, len(freqs))

	if got := Centroid(frame, freqs); got != 0 {
		t.Fatalf("expected centroid 0 for silence, got %v", got)
	}
	if got := Bandwidth(frame, freqs, 0); !math.IsNaN(got) {
		t.Fatalf("expected NaN bandwidth for silence, got %v", got)
	}
	if got := Rolloff(frame, freqs, 0.85); !math.IsNaN(got) {
		t.Fatalf("expected NaN rolloff for silence, got %v", got)
	}
	if got := Flatness(frame); !math.IsNaN(got) {
		t.Fatalf("expected NaN flatness for silence, got %v", got)
	}
}

func TestCentroidAndBandwidth(t *testing.T) {
	freqs := FrequencyAxis(16000, 16)
	frame := make([]float64, len(freqs))
	frame[2] = 1
	frame[4] = 1

	centroid := Centroid(frame, freqs)
	if !almostEqual(centroid, freqs[3], 1e-9) {
		t.Fatalf("expected centroid %v, got %v", freqs[3], centroid)
	}

	bw := Bandwidth(frame, freqs, centroid)
	if !almostEqual(bw, freqs[1], 1e-9) {
		t.Fatalf("expected bandwidth %v, got %v", freqs[1], bw)
	}
}

func TestFlatness(t *testing.T) {
	flat := []float64{9, 2, 2, 2, 2}
	if got := Flatness(flat); !almostEqual(got, 1, 1e-12) {
		t.Fatalf("expected flatness 1 for flat spectrum, got %v", got)
	}

	tonal := []float64{0, 0, 4, 0, 0}
	if got := Flatness(tonal); got != 0 {
		t.Fatalf("expected flatness 0 with empty bins, got %v", got)
	}
}

func TestExtractFeaturesExcludesUndefinedFrames(t *testing.T) {
	mag := &MagnitudeSpectrogram{SampleRate: 16000, FFTSize: 16}
	silent := make([]float64, mag.Bins())
	tone := make([]float64, mag.Bins())
	tone[5] = 1
	mag.Data = [][]float64{silent, tone}

	freqs := mag.Frequencies()
	fs := ExtractFeatures(mag, 0.85)

	if fs.Frames != 2 || fs.SilentFrames != 1 {
		t.Fatalf("expected 2 frames / 1 silent, got %d / %d", fs.Frames, fs.SilentFrames)
	}
	// 静音帧的质心定义为 0，参与平均
	if !almostEqual(fs.CentroidHz, freqs[5]/2, 1e-9) {
		t.Fatalf("expected centroid %v, got %v", freqs[5]/2, fs.CentroidHz)
	}
	if fs.BandwidthHz != 0 {
		t.Fatalf("expected bandwidth 0, got %v", fs.BandwidthHz)
	}
	if fs.RolloffHz != freqs[5] {
		t.Fatalf("expected rolloff %v, got %v", freqs[5], fs.RolloffHz)
	}
	if fs.RolloffPercent != 0.85 {
		t.Fatalf("expected rolloff percent 0.85, got %v", fs.RolloffPercent)
	}
}

func TestExtractFeaturesAllSilent(t *testing.T) {
	mag := &MagnitudeSpectrogram{SampleRate: 16000, FFTSize: 16}
	mag.Data = [][]float64{make([]float64, mag.Bins())}

	fs := ExtractFeatures(mag, 0.85)
	for _, f := range fs.Table() {
		if f.Value != 0 || math.IsNaN(f.Value) {
			t.Fatalf("%s: expected 0 for all-silent input, got %v", f.Name, f.Value)
		}
	}
}

func TestFeatureTable(t *testing.T) {
	table := FeatureSet{RolloffPercent: 0.85}.Table()
	if len(table) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table))
	}
	if table[2].Name != "Spectral Rolloff (85%)" {
		t.Fatalf("unexpected rolloff label %q", table[2].Name)
	}
}
