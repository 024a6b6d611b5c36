package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lossless-verifier/internal/types"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// FLACDecoder FLAC格式解码器
type FLACDecoder struct{}

// FLACFile FLAC文件实现
type FLACFile struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
	samples    []float64
	metadata   types.AudioMetadata
}

// SupportedFormats 返回支持的格式
func (d *FLACDecoder) SupportedFormats() []string {
	return []string{"flac"}
}

// Decode 解码FLAC文件
func (d *FLACDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开FLAC文件失败: %v", ErrUnreadableFile, err)
	}

	// Parse 会读取全部元数据块，New 只读取 StreamInfo
	stream, err := flac.Parse(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: 解析FLAC文件失败: %v", ErrUnreadableFile, err)
	}

	info := stream.Info
	if info == nil || info.SampleRate == 0 {
		file.Close()
		return nil, fmt.Errorf("%w: 无法读取FLAC信息: %s", ErrUnreadableFile, filePath)
	}

	// 计算时长
	duration := time.Duration(float64(info.NSamples) / float64(info.SampleRate) * float64(time.Second))

	flacFile := &FLACFile{
		stream:     stream,
		file:       file,
		sampleRate: int(info.SampleRate),
		bitDepth:   int(info.BitsPerSample),
		channels:   int(info.NChannels),
		duration:   duration,
		metadata:   types.AudioMetadata{Duration: duration.String()},
	}

	// 解析元数据
	flacFile.parseMetadata()

	return flacFile, nil
}

// parseMetadata 解析FLAC元数据
func (f *FLACFile) parseMetadata() {
	for _, block := range f.stream.Blocks {
		if block.Header.Type != meta.TypeVorbisComment {
			continue
		}
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		f.metadata = types.AudioMetadata{
			Title:    getVorbisTag(comment, "TITLE"),
			Artist:   getVorbisTag(comment, "ARTIST"),
			Album:    getVorbisTag(comment, "ALBUM"),
			Year:     getVorbisTag(comment, "DATE"),
			Genre:    getVorbisTag(comment, "GENRE"),
			Duration: f.duration.String(),
		}
	}
}

// getVorbisTag 获取Vorbis注释标签（不区分大小写）
func getVorbisTag(comment *meta.VorbisComment, tag string) string {
	for _, field := range comment.Tags {
		if strings.EqualFold(field[0], tag) {
			return field[1]
		}
	}
	return ""
}

// GetFormat 获取格式名称
func (f *FLACFile) GetFormat() string {
	return "FLAC"
}

// GetSampleRate 获取采样率
func (f *FLACFile) GetSampleRate() int {
	return f.sampleRate
}

// GetBitDepth 获取位深度
func (f *FLACFile) GetBitDepth() int {
	return f.bitDepth
}

// GetChannels 获取声道数
func (f *FLACFile) GetChannels() int {
	return f.channels
}

// GetDuration 获取时长
func (f *FLACFile) GetDuration() time.Duration {
	return f.duration
}

// GetSamples 读取全部音频帧并混合为单声道
func (f *FLACFile) GetSamples() ([]float64, error) {
	if f.samples != nil {
		return f.samples, nil
	}

	scale := float64(int64(1) << uint(f.bitDepth-1))
	samples := make([]float64, 0, f.stream.Info.NSamples)

	for {
		frame, err := f.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: 解析FLAC音频帧失败: %v", ErrUnreadableFile, err)
		}

		channels := len(frame.Subframes)
		for i := range frame.Subframes[0].Samples {
			sum := 0.0
			for ch := range channels {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}

	f.samples = samples
	return samples, nil
}

// GetMetadata 获取元数据
func (f *FLACFile) GetMetadata() types.AudioMetadata {
	return f.metadata
}

// Close 关闭文件
func (f *FLACFile) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
