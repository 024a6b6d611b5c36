package analyzer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"lossless-verifier/internal/decoder"
	"lossless-verifier/internal/spectral"
	"lossless-verifier/internal/types"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Analyzer 音频分析器
type Analyzer struct {
	config          *types.AnalyzerConfig
	engine          *spectral.Engine
	decoderRegistry *decoder.DecoderRegistry
	logger          *zap.Logger
	out             io.Writer
	progressOut     io.Writer
}

// NewAnalyzer 创建新的分析器，配置了 ffmpeg 且可用时注册 ffmpeg 解码器
func NewAnalyzer(config *types.AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	engine, err := spectral.NewEngine(config.Spectral)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	registry := decoder.NewDecoderRegistry()
	if config.FFmpegPath != "" {
		ffmpeg, err := decoder.NewFFmpegDecoder(config.FFmpegPath, config.FFprobePath, config.DecodeTimeout)
		if err != nil {
			logger.Warn("ffmpeg 不可用，仅支持 WAV/FLAC", zap.Error(err))
		} else {
			registry.Register(ffmpeg)
			logger.Debug("已启用 ffmpeg 解码", zap.String("ffmpeg", ffmpeg.FFmpegPath))
		}
	}

	return &Analyzer{
		config:          config,
		engine:          engine,
		decoderRegistry: registry,
		logger:          logger,
		out:             os.Stdout,
		progressOut:     os.Stderr,
	}, nil
}

// SetOutput 设置结果输出位置
func (a *Analyzer) SetOutput(w io.Writer) {
	a.out = w
}

// SupportedExtensions 返回可分析的文件扩展名
func (a *Analyzer) SupportedExtensions() []string {
	return a.decoderRegistry.SupportedExtensions()
}

// AnalyzeFiles 并发分析多个音频文件，输出并按输入顺序返回结果
func (a *Analyzer) AnalyzeFiles(filePaths []string) []*types.AnalysisResult {
	// 创建进度条
	var bar *progressbar.ProgressBar
	if !a.config.Quiet && !a.config.JSONOutput && len(filePaths) > 1 {
		bar = progressbar.NewOptions(len(filePaths),
			progressbar.OptionSetWriter(a.progressOut),
			progressbar.OptionSetDescription("分析音频文件"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowIts(),
		)
	}

	type job struct {
		index int
		path  string
	}
	type indexedResult struct {
		index  int
		result *types.AnalysisResult
	}

	// 创建工作通道
	jobs := make(chan job, len(filePaths))
	results := make(chan indexedResult, len(filePaths))

	concurrency := a.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// 启动工作协程
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- indexedResult{index: j.index, result: a.AnalyzeFile(j.path)}
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	// 发送任务
	go func() {
		for i, filePath := range filePaths {
			jobs <- job{index: i, path: filePath}
		}
		close(jobs)
	}()

	// 等待所有任务完成
	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := make([]*types.AnalysisResult, len(filePaths))
	for r := range results {
		allResults[r.index] = r.result
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(a.progressOut)
	}

	for _, result := range allResults {
		a.outputResult(result)
	}

	// 输出统计信息
	if !a.config.Quiet && !a.config.JSONOutput {
		a.printSummary(allResults)
	}

	return allResults
}

// AnalyzeFile 分析单个音频文件，失败时状态为 ERROR 或 INCONCLUSIVE
func (a *Analyzer) AnalyzeFile(filePath string) *types.AnalysisResult {
	start := time.Now()
	log := a.logger.With(zap.String("file", filePath))

	result := &types.AnalysisResult{
		FilePath: filePath,
		Status:   types.StatusError,
	}

	// 解码音频文件
	audioFile, err := a.decoderRegistry.DecodeFile(filePath)
	if err != nil {
		log.Warn("解码失败", zap.Error(err))
		result.Error = fmt.Sprintf("解码失败: %v", err)
		return result
	}
	defer audioFile.Close()

	// 填充基本信息
	result.Format = audioFile.GetFormat()
	result.Metadata = audioFile.GetMetadata()
	result.Analysis = types.AnalysisDetails{
		SampleRate:  audioFile.GetSampleRate(),
		BitDepth:    audioFile.GetBitDepth(),
		Channels:    audioFile.GetChannels(),
		Duration:    audioFile.GetDuration().Seconds(),
		CutoffHz:    a.config.Spectral.CutoffHz,
		CutoffRatio: a.config.Spectral.CutoffRatio,
	}

	// 获取音频采样数据
	samples, err := audioFile.GetSamples()
	if err != nil {
		log.Warn("读取音频数据失败", zap.Error(err))
		result.Error = fmt.Sprintf("读取音频数据失败: %v", err)
		return result
	}

	waveform := spectral.Waveform{Samples: samples, SampleRate: audioFile.GetSampleRate()}
	analysis, err := a.engine.Analyze(waveform)
	switch {
	case errors.Is(err, spectral.ErrThresholdUnreachable):
		result.Status = types.StatusInconclusive
		result.Analysis.Features = analysis.Features
		result.Analysis.Lowpass = analysis.Lowpass
		result.Analysis.Conclusion = "高频信息不足"
		result.Analysis.Details = fmt.Sprintf("采样率 %d Hz 的奈奎斯特频率不高于截止频率 %.0f Hz，无法计算高频能量比",
			waveform.SampleRate, a.config.Spectral.CutoffHz)
		log.Info("高频信息不足", zap.Int("sampleRate", waveform.SampleRate))
		return result
	case err != nil:
		log.Warn("频谱分析失败", zap.Error(err))
		result.Error = fmt.Sprintf("频谱分析失败: %v", err)
		return result
	}

	verdict := analysis.Verdict
	result.Analysis.Ratio = verdict.Ratio
	result.Analysis.HighFrequencyShare = analysis.Ratio.Share
	result.Analysis.Conclusion = verdict.Conclusion
	result.Analysis.Details = verdict.Details
	result.Analysis.Features = analysis.Features
	result.Analysis.Lowpass = analysis.Lowpass

	if verdict.Class == spectral.Authentic {
		result.Status = types.StatusAuthentic
	} else {
		result.Status = types.StatusSuspect
	}

	log.Debug("分析完成",
		zap.String("status", result.Status),
		zap.Float64("ratio", verdict.Ratio),
		zap.Int("frames", analysis.Magnitude.Frames()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result
}
