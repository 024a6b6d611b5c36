package spectral

import (
	"math"
	"testing"
)

func magnitudeOf(rows ...[]float64) *MagnitudeSpectrogram {
	return &MagnitudeSpectrogram{Data: rows, SampleRate: 8, FFTSize: 2 * (len(rows[0]) - 1)}
}

func TestMagnitudeShape(t *testing.T) {
	spec := &Spectrogram{
		Data:       [][]complex128{{3 + 4i, -1, 0}, {1i, 0, 2}},
		SampleRate: 8,
		WindowSize: 4,
		HopSize:    2,
	}
	mag := Magnitude(spec)

	if mag.Frames() != 2 || mag.Bins() != 3 {
		t.Fatalf("expected 2x3, got %dx%d", mag.Frames(), mag.Bins())
	}
	want := [][]float64{{5, 1, 0}, {1, 0, 2}}
	for f := range want {
		for k := range want[f] {
			if !almostEqual(mag.Data[f][k], want[f][k], 1e-12) {
				t.Fatalf("frame %d bin %d: expected %v, got %v", f, k, want[f][k], mag.Data[f][k])
			}
		}
	}
}

func TestToDBAutoReference(t *testing.T) {
	mag := magnitudeOf([]float64{10, 1, 0.1}, []float64{0, 5, 10})
	db := ToDB(mag, 0, 0)

	if !almostEqual(db[0][0], 0, 1e-12) {
		t.Fatalf("expected peak at 0 dB, got %v", db[0][0])
	}
	if !almostEqual(db[0][1], -20, 1e-9) {
		t.Fatalf("expected -20 dB, got %v", db[0][1])
	}
	if math.IsInf(db[1][0], 0) || math.IsNaN(db[1][0]) {
		t.Fatalf("zero magnitude should be floored, got %v", db[1][0])
	}
	if !almostEqual(db[1][0], -120, 1e-9) {
		t.Fatalf("expected floor at -120 dB relative to 10, got %v", db[1][0])
	}
}

func TestToDBMonotonic(t *testing.T) {
	m1 := magnitudeOf([]float64{2, 0.5, 1e-7, 3})
	m2 := magnitudeOf([]float64{1, 0.25, 0, 3})

	db1 := ToDB(m1, 1, 0)
	db2 := ToDB(m2, 1, 0)
	for k := range db1[0] {
		if m1.Data[0][k] > m2.Data[0][k] && db1[0][k] < db2[0][k] {
			t.Fatalf("bin %d: %v dB < %v dB for larger magnitude", k, db1[0][k], db2[0][k])
		}
	}
}

func TestToDBTopDBClips(t *testing.T) {
	mag := magnitudeOf([]float64{1, 1e-3, 1e-5})
	db := ToDB(mag, 0, 40)

	if !almostEqual(db[0][1], -40, 1e-9) {
		t.Fatalf("expected -60 dB to clip to -40 dB, got %v", db[0][1])
	}
	if !almostEqual(db[0][2], -40, 1e-9) {
		t.Fatalf("expected -100 dB to clip to -40 dB, got %v", db[0][2])
	}
}

func TestMeanSpectrum(t *testing.T) {
	mag := magnitudeOf([]float64{1, 2, 3}, []float64{3, 2, 1})
	mean := mag.MeanSpectrum()
	for k, v := range mean {
		if v != 2 {
			t.Fatalf("bin %d: expected 2, got %v", k, v)
		}
	}
	if mag.Max() != 3 {
		t.Fatalf("expected max 3, got %v", mag.Max())
	}
}
