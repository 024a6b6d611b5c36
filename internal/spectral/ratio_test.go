package spectral

import (
	"errors"
	"testing"
)

func TestCutoffBin(t *testing.T) {
	freqs := []float64{0, 10, 20, 30}

	idx, err := CutoffBin(freqs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Fatalf("expected first bin strictly above 10 Hz (2), got %d", idx)
	}

	if _, err := CutoffBin(freqs, 30); !errors.Is(err, ErrThresholdUnreachable) {
		t.Fatalf("expected ErrThresholdUnreachable, got %v", err)
	}
}

func analyzeRatio(t *testing.T, w Waveform, cfg Config) (RatioResult, error) {
	t.Helper()
	spec, err := STFT(w, cfg)
	if err != nil {
		t.Fatalf("STFT: %v", err)
	}
	return HighFrequencyRatio(Magnitude(spec), cfg.CutoffHz)
}

func TestHighFrequencyRatioSine(t *testing.T) {
	cfg := testConfig()
	r, err := analyzeRatio(t, sineWave(1000, 44100, 4), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if r.Ratio >= cfg.CutoffRatio {
		t.Fatalf("expected ratio close to 0 for a 1 kHz sine, got %v", r.Ratio)
	}
	if v := Classify(r, cfg.CutoffRatio); v.Class != Suspect {
		t.Fatalf("expected Suspect, got %s", v.Class)
	}
}

func TestHighFrequencyRatioWhiteNoise(t *testing.T) {
	cfg := testConfig()
	r, err := analyzeRatio(t, whiteNoise(96000, 2, 42), cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 白噪声各频点平均幅度相同，平均值之比约为 1，总和占比约为截止频率以上频点所占比例
	bins := cfg.WindowSize/2 + 1
	expectedShare := float64(bins-r.CutoffBin) / float64(bins)
	if !almostEqual(r.Share, expectedShare, 0.03) {
		t.Fatalf("expected share near %.3f, got %.3f", expectedShare, r.Share)
	}
	if !almostEqual(r.Ratio, 1, 0.1) {
		t.Fatalf("expected ratio near 1, got %v", r.Ratio)
	}
	if v := Classify(r, cfg.CutoffRatio); v.Class != Authentic {
		t.Fatalf("expected Authentic, got %s", v.Class)
	}
}

func TestHighFrequencyRatioUnreachable(t *testing.T) {
	for _, rate := range []int{40000, 32000, 22050} {
		_, err := analyzeRatio(t, whiteNoise(rate, 0.2, 1), testConfig())
		if !errors.Is(err, ErrThresholdUnreachable) {
			t.Fatalf("rate %d: expected ErrThresholdUnreachable, got %v", rate, err)
		}
	}
}

func TestHighFrequencyRatioDegenerate(t *testing.T) {
	w := Waveform{Samples: make([]float64, 4096), SampleRate: 44100}
	_, err := analyzeRatio(t, w, testConfig())
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Fatalf("expected ErrDegenerateSignal, got %v", err)
	}
}

func TestHighFrequencyRatioEmpty(t *testing.T) {
	_, err := HighFrequencyRatio(&MagnitudeSpectrogram{SampleRate: 44100, FFTSize: 2048}, 20000)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
