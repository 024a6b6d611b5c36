package decoder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lossless-verifier/internal/spectral"
	"lossless-verifier/internal/types"
)

// ErrUnreadableFile 路径不存在、格式不支持或解码失败
var ErrUnreadableFile = errors.New("无法读取音频文件")

// AudioDecoder 音频解码器接口
type AudioDecoder interface {
	Decode(filePath string) (types.AudioFile, error)
	SupportedFormats() []string
}

// DecoderRegistry 解码器注册表
type DecoderRegistry struct {
	decoders map[string]AudioDecoder
}

// NewDecoderRegistry 创建新的解码器注册表，默认注册 WAV 和 FLAC
func NewDecoderRegistry() *DecoderRegistry {
	registry := &DecoderRegistry{
		decoders: make(map[string]AudioDecoder),
	}

	registry.Register(&WAVDecoder{})
	registry.Register(&FLACDecoder{})

	return registry
}

// Register 注册解码器，已存在的扩展名不会被覆盖
func (r *DecoderRegistry) Register(decoder AudioDecoder) {
	for _, format := range decoder.SupportedFormats() {
		format = strings.ToLower(format)
		if _, exists := r.decoders[format]; exists {
			continue
		}
		r.decoders[format] = decoder
	}
}

// SupportedExtensions 返回已注册的扩展名（带点号，已排序）
func (r *DecoderRegistry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.decoders))
	for format := range r.decoders {
		exts = append(exts, "."+format)
	}
	sort.Strings(exts)
	return exts
}

// GetDecoder 根据文件扩展名获取解码器
func (r *DecoderRegistry) GetDecoder(filePath string) (AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return nil, fmt.Errorf("%w: 无法确定文件格式: %s", ErrUnreadableFile, filePath)
	}

	// 移除点号
	ext = ext[1:]

	decoder, exists := r.decoders[ext]
	if !exists {
		return nil, fmt.Errorf("%w: 不支持的音频格式: %s", ErrUnreadableFile, ext)
	}

	return decoder, nil
}

// DecodeFile 解码音频文件
func (r *DecoderRegistry) DecodeFile(filePath string) (types.AudioFile, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	decoder, err := r.GetDecoder(filePath)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(filePath)
}

// LoadWaveform 解码文件并读取单声道波形
func (r *DecoderRegistry) LoadWaveform(filePath string) (spectral.Waveform, error) {
	audioFile, err := r.DecodeFile(filePath)
	if err != nil {
		return spectral.Waveform{}, err
	}
	defer audioFile.Close()

	samples, err := audioFile.GetSamples()
	if err != nil {
		return spectral.Waveform{}, err
	}

	return spectral.Waveform{Samples: samples, SampleRate: audioFile.GetSampleRate()}, nil
}

// downmix 将交错的多声道整数采样平均为单声道并归一化到 [-1, 1)
func downmix(data []int, channels, bitDepth int) []float64 {
	if channels <= 0 {
		channels = 1
	}

	if bitDepth <= 0 {
		bitDepth = 16
	}

	scale := float64(int64(1) << uint(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		// 8 位 WAV 为无符号采样
		offset = 128
	}

	frames := len(data) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += float64(data[i*channels+ch]) - offset
		}
		mono[i] = sum / float64(channels) / scale
	}
	return mono
}
