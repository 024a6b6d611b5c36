package decoder

import (
	"fmt"
	"os"
	"time"

	"lossless-verifier/internal/types"

	"github.com/go-audio/wav"
)

// WAVDecoder WAV格式解码器
type WAVDecoder struct{}

// WAVFile WAV文件实现
type WAVFile struct {
	decoder    *wav.Decoder
	file       *os.File
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
	samples    []float64
}

// SupportedFormats 返回支持的格式
func (d *WAVDecoder) SupportedFormats() []string {
	return []string{"wav"}
}

// Decode 解码WAV文件
func (d *WAVDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开WAV文件失败: %v", ErrUnreadableFile, err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%w: 无效的WAV文件: %s", ErrUnreadableFile, filePath)
	}

	duration, err := decoder.Duration()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: 读取WAV时长失败: %v", ErrUnreadableFile, err)
	}

	return &WAVFile{
		decoder:    decoder,
		file:       file,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   int(decoder.BitDepth),
		channels:   int(decoder.NumChans),
		duration:   duration,
	}, nil
}

// GetFormat 获取格式名称
func (w *WAVFile) GetFormat() string {
	return "WAV"
}

// GetSampleRate 获取采样率
func (w *WAVFile) GetSampleRate() int {
	return w.sampleRate
}

// GetBitDepth 获取位深度
func (w *WAVFile) GetBitDepth() int {
	return w.bitDepth
}

// GetChannels 获取声道数
func (w *WAVFile) GetChannels() int {
	return w.channels
}

// GetDuration 获取时长
func (w *WAVFile) GetDuration() time.Duration {
	return w.duration
}

// GetSamples 读取全部PCM数据并混合为单声道
func (w *WAVFile) GetSamples() ([]float64, error) {
	if w.samples != nil {
		return w.samples, nil
	}

	buf, err := w.decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: 读取WAV数据失败: %v", ErrUnreadableFile, err)
	}

	w.samples = downmix(buf.Data, w.channels, w.bitDepth)
	return w.samples, nil
}

// GetMetadata 获取元数据
func (w *WAVFile) GetMetadata() types.AudioMetadata {
	// WAV文件的元数据支持有限，这里返回基本信息
	return types.AudioMetadata{
		Duration: w.duration.String(),
	}
}

// Close 关闭文件
func (w *WAVFile) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
