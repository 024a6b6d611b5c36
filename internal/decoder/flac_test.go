package decoder

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const flacBlockSize = 4096

// writeFLAC 以 verbatim 子帧写入 FLAC 测试文件，channels 每个元素为一个声道的采样
func writeFLAC(t *testing.T, path string, sampleRate, bitDepth int, channels [][]int32, blocks ...*meta.Block) {
	t.Helper()

	n := len(channels[0])
	if tail := n % flacBlockSize; tail != 0 && tail < 16 {
		t.Fatalf("tail block of %d samples is shorter than 16", tail)
	}

	layout := frame.ChannelsMono
	if len(channels) == 2 {
		layout = frame.ChannelsLR
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: uint8(bitDepth),
	}
	enc, err := flac.NewEncoder(f, info, blocks...)
	if err != nil {
		f.Close()
		t.Fatalf("NewEncoder: %v", err)
	}

	for start := 0; start < n; start += flacBlockSize {
		end := min(start+flacBlockSize, n)
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(end - start),
				SampleRate:        uint32(sampleRate),
				Channels:          layout,
				BitsPerSample:     uint8(bitDepth),
			},
		}
		for _, ch := range channels {
			fr.Subframes = append(fr.Subframes, &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   ch[start:end],
				NSamples:  end - start,
			})
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	// Close 回写 StreamInfo 中的 NSamples 并关闭文件
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestDecodeFLACStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.flac")

	const n = 3*flacBlockSize + 1000
	left := make([]int32, n)
	right := make([]int32, n)
	for i := range n {
		if i < flacBlockSize {
			left[i], right[i] = 16384, 0
		} else {
			left[i], right[i] = -32768, -32768
		}
	}

	comment := &meta.Block{
		Header: meta.Header{Type: meta.TypeVorbisComment},
		Body: &meta.VorbisComment{
			Vendor: "lossless-verifier",
			Tags:   [][2]string{{"TITLE", "Fixture"}, {"artist", "Nobody"}},
		},
	}
	writeFLAC(t, path, 44100, 16, [][]int32{left, right}, comment)

	file, err := NewDecoderRegistry().DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	defer file.Close()

	if file.GetFormat() != "FLAC" {
		t.Errorf("format = %q", file.GetFormat())
	}
	if file.GetSampleRate() != 44100 || file.GetChannels() != 2 || file.GetBitDepth() != 16 {
		t.Errorf("unexpected header: sr=%d ch=%d bits=%d", file.GetSampleRate(), file.GetChannels(), file.GetBitDepth())
	}

	nsamples := file.(*FLACFile).stream.Info.NSamples
	if nsamples != n {
		t.Fatalf("StreamInfo.NSamples = %d, want %d", nsamples, n)
	}
	wantDuration := time.Duration(float64(n) / 44100 * float64(time.Second))
	if file.GetDuration() != wantDuration {
		t.Errorf("duration = %v, want %v", file.GetDuration(), wantDuration)
	}

	md := file.GetMetadata()
	if md.Title != "Fixture" || md.Artist != "Nobody" {
		t.Errorf("metadata = %+v", md)
	}

	samples, err := file.GetSamples()
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if uint64(len(samples)) != nsamples {
		t.Fatalf("got %d samples, want %d", len(samples), nsamples)
	}
	// (16384 + 0) / 2 / 2^15
	if math.Abs(samples[0]-0.25) > 1e-12 || math.Abs(samples[flacBlockSize-1]-0.25) > 1e-12 {
		t.Errorf("first block = %v, %v, want 0.25", samples[0], samples[flacBlockSize-1])
	}
	if samples[flacBlockSize] != -1 || samples[n-1] != -1 {
		t.Errorf("full-scale negative = %v, %v, want -1", samples[flacBlockSize], samples[n-1])
	}

	again, err := file.GetSamples()
	if err != nil || len(again) != len(samples) {
		t.Errorf("second GetSamples: len=%d err=%v", len(again), err)
	}
}

func TestDecodeFLAC24BitScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono24.flac")

	const n = flacBlockSize + 100
	mono := make([]int32, n)
	for i := range mono {
		mono[i] = 1 << 21
	}
	mono[n-1] = -(1 << 23)
	writeFLAC(t, path, 48000, 24, [][]int32{mono})

	w, err := NewDecoderRegistry().LoadWaveform(path)
	if err != nil {
		t.Fatalf("LoadWaveform: %v", err)
	}
	if w.SampleRate != 48000 || len(w.Samples) != n {
		t.Fatalf("waveform: sr=%d len=%d", w.SampleRate, len(w.Samples))
	}
	// 2^21 / 2^23
	if w.Samples[0] != 0.25 {
		t.Errorf("Samples[0] = %v, want 0.25", w.Samples[0])
	}
	if w.Samples[n-1] != -1 {
		t.Errorf("Samples[last] = %v, want -1", w.Samples[n-1])
	}
}
