package spectral

import (
	"math"
	"math/rand"
)

func sineWave(freq float64, sampleRate int, seconds float64) Waveform {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

func whiteNoise(sampleRate int, seconds float64, seed int64) Waveform {
	rng := rand.New(rand.NewSource(seed))
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 4
	return cfg
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
