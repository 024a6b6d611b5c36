package decoder

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"lossless-verifier/internal/types"
)

// DefaultDecodeTimeout 单个文件 ffmpeg 探测与解码的默认超时
const DefaultDecodeTimeout = 2 * time.Minute

// FFmpegDecoder 通过外部 ffmpeg/ffprobe 解码 WAV、FLAC 以外的格式
type FFmpegDecoder struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// ErrFFmpegNotConfigured 未指定 ffmpeg 路径
var ErrFFmpegNotConfigured = errors.New("未指定 ffmpeg 路径")

// NewFFmpegDecoder 解析 ffmpeg 与 ffprobe 的路径，找不到时返回错误；ffprobePath 为空时在 PATH 中查找 ffprobe
func NewFFmpegDecoder(ffmpegPath, ffprobePath string, timeout time.Duration) (*FFmpegDecoder, error) {
	if ffmpegPath == "" {
		return nil, ErrFFmpegNotConfigured
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultDecodeTimeout
	}

	resolvedFFmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("找不到 ffmpeg: %w", err)
	}
	resolvedFFprobe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("找不到 ffprobe: %w", err)
	}

	return &FFmpegDecoder{
		FFmpegPath:  resolvedFFmpeg,
		FFprobePath: resolvedFFprobe,
		Timeout:     timeout,
	}, nil
}

// SupportedFormats 返回支持的格式
func (d *FFmpegDecoder) SupportedFormats() []string {
	return []string{"mp3", "m4a", "aac", "ogg", "opus", "wma", "ape", "alac", "aiff", "wv"}
}

// probeInfo ffprobe 返回的流信息
type probeInfo struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	Metadata   types.AudioMetadata
}

// Decode 探测文件信息并解码为单声道 float64 PCM
func (d *FFmpegDecoder) Decode(filePath string) (types.AudioFile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	info, err := d.probe(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	samples, err := d.decodePCM(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	return &FFmpegFile{info: info, samples: samples}, nil
}

// probe 调用 ffprobe 读取第一个音频流
func (d *FFmpegDecoder) probe(ctx context.Context, filePath string) (*probeInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "a:0",
		filePath,
	}

	output, err := exec.CommandContext(ctx, d.FFprobePath, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe 执行失败: %w, stderr: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe 执行失败: %w", err)
	}

	return parseProbeOutput(output)
}

// parseProbeOutput 解析 ffprobe 的 JSON 输出
func parseProbeOutput(data []byte) (*probeInfo, error) {
	var probe struct {
		Streams []struct {
			CodecType        string `json:"codec_type"`
			CodecName        string `json:"codec_name"`
			SampleRate       string `json:"sample_rate"`
			Channels         int    `json:"channels"`
			BitsPerRawSample string `json:"bits_per_raw_sample"`
			Duration         string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string            `json:"duration"`
			Tags     map[string]string `json:"tags"`
		} `json:"format"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("解析 ffprobe 输出失败: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, errors.New("没有找到音频流")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("不是音频流: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("无效的采样率: %q", stream.SampleRate)
	}

	// 有损格式通常没有 bits_per_raw_sample
	bitDepth, _ := strconv.Atoi(stream.BitsPerRawSample)

	durationStr := stream.Duration
	if durationStr == "" {
		durationStr = probe.Format.Duration
	}
	seconds, _ := strconv.ParseFloat(durationStr, 64)
	duration := time.Duration(seconds * float64(time.Second))

	tag := func(name string) string {
		for k, v := range probe.Format.Tags {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	}

	return &probeInfo{
		Codec:      stream.CodecName,
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		BitDepth:   bitDepth,
		Duration:   duration,
		Metadata: types.AudioMetadata{
			Title:    tag("title"),
			Artist:   tag("artist"),
			Album:    tag("album"),
			Year:     tag("date"),
			Genre:    tag("genre"),
			Duration: duration.String(),
		},
	}, nil
}

// decodePCM 以原采样率输出单声道 f64le
func (d *FFmpegDecoder) decodePCM(ctx context.Context, filePath string) ([]float64, error) {
	args := []string{
		"-v", "error",
		"-i", filePath,
		"-vn",
		"-ac", "1",
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-",
	}

	output, err := exec.CommandContext(ctx, d.FFmpegPath, args...).Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffmpeg 解码超时 (%s)", d.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffmpeg 解码失败: %w, stderr: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg 解码失败: %w", err)
	}

	return bytesToFloat64(output), nil
}

// bytesToFloat64 将 f64le 字节流转换为采样，忽略末尾不完整的字节
func bytesToFloat64(data []byte) []float64 {
	samples := make([]float64, len(data)/8)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return samples
}

// FFmpegFile ffmpeg 解码结果，采样在 Decode 时已全部读入内存
type FFmpegFile struct {
	info    *probeInfo
	samples []float64
}

// GetFormat 获取格式名称
func (f *FFmpegFile) GetFormat() string {
	return strings.ToUpper(f.info.Codec)
}

// GetSampleRate 获取采样率
func (f *FFmpegFile) GetSampleRate() int {
	return f.info.SampleRate
}

// GetBitDepth 获取位深度，有损格式为 0
func (f *FFmpegFile) GetBitDepth() int {
	return f.info.BitDepth
}

// GetChannels 获取源文件声道数
func (f *FFmpegFile) GetChannels() int {
	return f.info.Channels
}

// GetDuration 获取时长
func (f *FFmpegFile) GetDuration() time.Duration {
	return f.info.Duration
}

// GetSamples 返回单声道采样
func (f *FFmpegFile) GetSamples() ([]float64, error) {
	return f.samples, nil
}

// GetMetadata 获取元数据
func (f *FFmpegFile) GetMetadata() types.AudioMetadata {
	return f.info.Metadata
}

// Close 无需释放资源
func (f *FFmpegFile) Close() error {
	return nil
}
