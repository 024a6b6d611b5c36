package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"lossless-verifier/internal/analyzer"
	"lossless-verifier/internal/decoder"
	"lossless-verifier/internal/logger"
	"lossless-verifier/internal/report"
	"lossless-verifier/internal/spectral"
	"lossless-verifier/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// 频谱分析参数（所有子命令共用）
	windowSize     int
	hopSize        int
	windowType     string
	cutoffHz       float64
	cutoffRatio    float64
	rolloffPercent float64
	dbReference    float64
	topDB          float64
	workers        int
	logLevel       string
	logDev         bool

	// 批量检测
	quiet              bool
	onlySuspect        bool
	jsonOutput         bool
	concurrency        int
	csvDir             string
	parquetPath        string
	parquetCompression string
	s3Bucket           string
	s3Prefix           string
	s3Region           string
	s3Endpoint         string
	s3AccessKey        string
	s3SecretKey        string
	s3SessionToken     string
	s3PathStyle        bool
	s3SSE              string
	ffmpegPath         string
	ffprobePath        string
	decodeTimeout      time.Duration

	log     *zap.Logger
	version = "2.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "lossless-verifier [path]",
	Short: "通过高频能量比检测无损音频是否由有损格式转换而来",
	Long: `Lossless Verifier 是一个CLI工具，用于检测无损音频文件是否真的是无损格式。
支持 WAV, FLAC 格式；配置 --ffmpeg 后可分析 MP3、AAC、Ogg 等 ffmpeg 能解码的格式。

对音频做短时傅里叶变换，计算截止频率（默认 20 kHz）以上的平均幅度与全频段平均幅度之比。
比值高于阈值（默认 0.001）判定为真无损，否则疑似由有损格式转换而来。这是启发式判断，不是来源证明。`,
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: setupLogger,
	RunE:              runAnalysis,
	SilenceUsage:      true,
}

// Execute 执行根命令
func Execute() {
	defer func() {
		if log != nil {
			_ = log.Sync()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaults := spectral.DefaultConfig()

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&windowSize, "window", defaults.WindowSize, "STFT 帧长 (FFT 点数)")
	pf.IntVar(&hopSize, "hop", defaults.HopSize, "STFT 帧移")
	pf.StringVar(&windowType, "window-type", string(defaults.Window), "窗函数: hann, hamming, blackman, rectangular")
	pf.Float64Var(&cutoffHz, "cutoff", defaults.CutoffHz, "高频截止频率 (Hz)")
	pf.Float64Var(&cutoffRatio, "cutoff-ratio", defaults.CutoffRatio, "高频能量比阈值")
	pf.Float64Var(&rolloffPercent, "rolloff", defaults.RolloffPercent, "频谱滚降点百分比 [0,1]")
	pf.Float64Var(&dbReference, "db-ref", 0, "分贝参考幅度，0 表示取最大幅度")
	pf.Float64Var(&topDB, "top-db", defaults.TopDB, "分贝谱动态范围，0 表示不裁剪")
	pf.IntVar(&workers, "workers", runtime.NumCPU(), "单个文件 STFT 的并行协程数")
	pf.StringVar(&logLevel, "log-level", "warn", "日志级别: debug, info, warn, error")
	pf.BoolVar(&logDev, "log-dev", false, "开发模式日志（控制台格式）")

	f := rootCmd.Flags()
	f.BoolVarP(&quiet, "quiet", "q", false, "静默模式，仅输出疑似假无损文件路径")
	f.BoolVar(&onlySuspect, "only-suspect", false, "只显示疑似假无损文件的分析报告")
	f.BoolVar(&jsonOutput, "json", false, "以JSON格式输出结果")
	f.IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "并发处理文件数量")
	f.StringVar(&csvDir, "csv-dir", "", "为每个文件生成 CSV 特征报告的目录")
	f.StringVar(&parquetPath, "parquet", "", "批量汇总 Parquet 文件路径")
	f.StringVar(&parquetCompression, "parquet-compression", "snappy", "Parquet 压缩算法: snappy, zstd, gzip")
	f.StringVar(&s3Bucket, "s3-bucket", "", "上传报告的 S3 bucket")
	f.StringVar(&s3Prefix, "s3-prefix", "", "S3 对象键前缀")
	f.StringVar(&s3Region, "s3-region", "", "S3 区域，默认读取 AWS 配置")
	f.StringVar(&s3Endpoint, "s3-endpoint", "", "自定义 S3 端点（LocalStack/MinIO）")
	f.StringVar(&s3AccessKey, "s3-access-key", "", "S3 静态 Access Key，为空时使用默认凭证链")
	f.StringVar(&s3SecretKey, "s3-secret-key", "", "S3 静态 Secret Key")
	f.StringVar(&s3SessionToken, "s3-session-token", "", "S3 临时凭证 Session Token")
	f.BoolVar(&s3PathStyle, "s3-path-style", false, "使用 path-style 寻址")
	f.StringVar(&s3SSE, "s3-sse", "", "服务端加密: aes256, aws:kms")
	f.StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg 路径，设置后启用有损格式解码")
	f.StringVar(&ffprobePath, "ffprobe", "ffprobe", "ffprobe 路径")
	f.DurationVar(&decodeTimeout, "decode-timeout", decoder.DefaultDecodeTimeout, "单个文件 ffmpeg 解码超时")
	f.BoolP("version", "v", false, "显示版本信息")

	rootCmd.SetVersionTemplate("lossless-verifier version {{.Version}}\n")
	rootCmd.Version = version

	rootCmd.AddCommand(compareCmd)
}

func setupLogger(cmd *cobra.Command, args []string) error {
	var err error
	log, err = logger.New(
		logger.WithLevel(logLevel),
		logger.WithDevelopment(logDev),
		logger.WithFields(map[string]interface{}{"command": cmd.Name()}),
	)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	return nil
}

// spectralConfig 由命令行参数生成频谱分析配置
func spectralConfig() spectral.Config {
	cfg := spectral.DefaultConfig()
	cfg.WindowSize = windowSize
	cfg.HopSize = hopSize
	cfg.Window = spectral.WindowType(strings.ToLower(windowType))
	cfg.CutoffHz = cutoffHz
	cfg.CutoffRatio = cutoffRatio
	cfg.RolloffPercent = rolloffPercent
	cfg.DBReference = dbReference
	cfg.TopDB = topDB
	cfg.Workers = workers
	return cfg
}

// s3ConfigFromFlags 由命令行参数生成 S3 上传配置
func s3ConfigFromFlags() report.S3Config {
	return report.S3Config{
		Bucket:       s3Bucket,
		Prefix:       s3Prefix,
		Region:       s3Region,
		Endpoint:     s3Endpoint,
		AccessKey:    s3AccessKey,
		SecretKey:    s3SecretKey,
		SessionToken: s3SessionToken,
		PathStyle:    s3PathStyle,
		SSE:          s3SSE,
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	targetPath := args[0]

	// 检查路径是否存在
	if _, err := os.Stat(targetPath); os.IsNotExist(err) {
		return fmt.Errorf("路径不存在: %s", targetPath)
	}

	// 创建分析器配置
	config := &types.AnalyzerConfig{
		Spectral:      spectralConfig(),
		Concurrency:   concurrency,
		Quiet:         quiet,
		OnlySuspect:   onlySuspect,
		JSONOutput:    jsonOutput,
		FFmpegPath:    ffmpegPath,
		FFprobePath:   ffprobePath,
		DecodeTimeout: decodeTimeout,
	}

	// 创建分析器实例
	audioAnalyzer, err := analyzer.NewAnalyzer(config, log)
	if err != nil {
		return fmt.Errorf("参数错误: %w", err)
	}
	audioAnalyzer.SetOutput(cmd.OutOrStdout())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 在分析前连接 S3，避免分析完才发现配置错误
	assembler, err := report.NewAssembler(ctx, report.Options{
		CSVDir:             csvDir,
		ParquetPath:        parquetPath,
		ParquetCompression: parquetCompression,
		S3:                 s3ConfigFromFlags(),
	}, log)
	if err != nil {
		return fmt.Errorf("初始化报告输出失败: %w", err)
	}

	// 收集音频文件
	files, err := collectAudioFiles(targetPath, audioAnalyzer.SupportedExtensions())
	if err != nil {
		return fmt.Errorf("收集音频文件失败: %w", err)
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "未找到支持的音频文件")
		return nil
	}

	log.Info("开始分析", zap.Int("files", len(files)), zap.Int("concurrency", concurrency))

	// 开始分析
	results := audioAnalyzer.AnalyzeFiles(files)

	if !assembler.Enabled() {
		return nil
	}

	artifacts, err := assembler.Assemble(ctx, results)
	if err != nil {
		return fmt.Errorf("生成报告失败: %w", err)
	}
	if !quiet && !jsonOutput {
		for _, artifact := range artifacts {
			fmt.Fprintf(cmd.OutOrStdout(), "报告: %s\n", artifact)
		}
	}
	return nil
}

// collectAudioFiles 收集目录下扩展名受支持的文件；path 为文件时直接返回，由解码器报告格式错误
func collectAudioFiles(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	supportedExts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		supportedExts[ext] = true
	}

	err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(filePath))
		if supportedExts[ext] {
			files = append(files, filePath)
		}

		return nil
	})

	return files, err
}
