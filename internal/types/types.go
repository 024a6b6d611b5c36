package types

import (
	"time"

	"lossless-verifier/internal/spectral"
)

// 分析状态
const (
	StatusAuthentic    = "AUTHENTIC"    // 真无损
	StatusSuspect      = "SUSPECT"      // 疑似假无损
	StatusInconclusive = "INCONCLUSIVE" // 采样率过低，没有截止频率以上的频段
	StatusError        = "ERROR"        // 解码或分析失败
)

// AnalyzerConfig 分析器配置
type AnalyzerConfig struct {
	Spectral      spectral.Config // 频谱分析参数
	Concurrency   int             // 并发数
	Quiet         bool            // 静默模式
	OnlySuspect   bool            // 只显示疑似假无损
	JSONOutput    bool            // JSON输出格式
	FFmpegPath    string          // ffmpeg 路径，为空则不启用 ffmpeg 解码
	FFprobePath   string          // ffprobe 路径
	DecodeTimeout time.Duration   // ffmpeg 解码超时
}

// AudioMetadata 音频元数据
type AudioMetadata struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Year     string `json:"year,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// AnalysisDetails 详细分析结果
type AnalysisDetails struct {
	Ratio              float64             `json:"ratio"`
	HighFrequencyShare float64             `json:"highFrequencyShare"`
	CutoffHz           float64             `json:"cutoffHz"`
	CutoffRatio        float64             `json:"cutoffRatio"`
	Conclusion         string              `json:"conclusion"`
	Details            string              `json:"details"`
	Features           spectral.FeatureSet `json:"features"`
	Lowpass            spectral.Lowpass    `json:"lowpass"`
	SampleRate         int                 `json:"sampleRate"`
	BitDepth           int                 `json:"bitDepth"`
	Channels           int                 `json:"channels"`
	Duration           float64             `json:"duration"`
}

// AnalysisResult 分析结果
type AnalysisResult struct {
	FilePath string          `json:"filePath"`
	Format   string          `json:"format"`
	Metadata AudioMetadata   `json:"metadata"`
	Status   string          `json:"status"` // AUTHENTIC, SUSPECT, INCONCLUSIVE, ERROR
	Analysis AnalysisDetails `json:"analysis"`
	Error    string          `json:"error,omitempty"`
}

// IsSuspect 是否为疑似假无损
func (r *AnalysisResult) IsSuspect() bool {
	return r.Status == StatusSuspect
}

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	GetSamples() ([]float64, error) // 单声道（各声道平均）
	GetMetadata() AudioMetadata
	Close() error
}
