package decoder

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV 写入 16 位 PCM 测试文件，data 为交错采样
func writeWAV(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	const frames = 1000
	data := make([]int, 0, frames*2)
	for range frames {
		data = append(data, 16384, 0)
	}
	writeWAV(t, path, 44100, 2, data)

	registry := NewDecoderRegistry()
	file, err := registry.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	defer file.Close()

	if file.GetFormat() != "WAV" {
		t.Errorf("format = %q", file.GetFormat())
	}
	if file.GetSampleRate() != 44100 || file.GetChannels() != 2 || file.GetBitDepth() != 16 {
		t.Errorf("unexpected header: sr=%d ch=%d bits=%d", file.GetSampleRate(), file.GetChannels(), file.GetBitDepth())
	}

	samples, err := file.GetSamples()
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(samples) != frames {
		t.Fatalf("len(samples) = %d, want %d", len(samples), frames)
	}
	for i, s := range samples {
		if math.Abs(s-0.25) > 1e-9 {
			t.Fatalf("samples[%d] = %v, want 0.25", i, s)
		}
	}
}

func TestLoadWaveform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")

	const sampleRate = 8000
	data := make([]int, sampleRate)
	for i := range data {
		data[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}
	writeWAV(t, path, sampleRate, 1, data)

	w, err := NewDecoderRegistry().LoadWaveform(path)
	if err != nil {
		t.Fatalf("LoadWaveform: %v", err)
	}
	if w.SampleRate != sampleRate {
		t.Errorf("SampleRate = %d", w.SampleRate)
	}
	if len(w.Samples) != sampleRate {
		t.Fatalf("len = %d", len(w.Samples))
	}
	if got, want := w.Samples[100], float64(data[100])/32768; math.Abs(got-want) > 1e-9 {
		t.Errorf("Samples[100] = %v, want %v", got, want)
	}
}

func TestDecodeFileErrors(t *testing.T) {
	dir := t.TempDir()
	registry := NewDecoderRegistry()

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "nope.wav")},
		{"unsupported", filepath.Join(dir, "notes.txt")},
		{"no extension", filepath.Join(dir, "README")},
		{"corrupt wav", filepath.Join(dir, "broken.wav")},
		{"corrupt flac", filepath.Join(dir, "broken.flac")},
	}

	for _, name := range []string{"notes.txt", "README", "broken.wav", "broken.flac"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("not audio at all"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.DecodeFile(tt.path)
			if !errors.Is(err, ErrUnreadableFile) {
				t.Fatalf("err = %v, want ErrUnreadableFile", err)
			}
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	registry := NewDecoderRegistry()
	got := registry.SupportedExtensions()
	want := []string{".flac", ".wav"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	registry.Register(&FFmpegDecoder{})
	exts := registry.SupportedExtensions()
	if len(exts) != 2+len((&FFmpegDecoder{}).SupportedFormats()) {
		t.Errorf("after ffmpeg register: %v", exts)
	}

	// 已注册的 wav 不应被覆盖
	dec, err := registry.GetDecoder("x.WAV")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dec.(*WAVDecoder); !ok {
		t.Errorf("wav decoder replaced by %T", dec)
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		channels int
		bits     int
		want     []float64
	}{
		{"mono 16", []int{16384, -32768}, 1, 16, []float64{0.5, -1}},
		{"stereo 16", []int{16384, -16384, 32767, 32767}, 2, 16, []float64{0, 32767.0 / 32768}},
		{"unsigned 8", []int{128, 192}, 1, 8, []float64{0, 0.5}},
		{"trailing partial frame", []int{100, 100, 100}, 2, 16, []float64{100.0 / 32768}},
		{"unknown depth", []int{16384}, 0, 0, []float64{0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := downmix(tt.data, tt.channels, tt.bits)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
