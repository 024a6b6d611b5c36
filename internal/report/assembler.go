package report

import (
	"context"
	"fmt"

	"lossless-verifier/internal/types"

	"go.uber.org/zap"
)

// Uploader 上传已生成的报告文件
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Options 报告输出选项，均为空时不生成任何报告
type Options struct {
	CSVDir             string
	ParquetPath        string
	ParquetCompression string
	S3                 S3Config
}

// Assembler 根据分析结果生成并上传报告
type Assembler struct {
	opts     Options
	uploader Uploader
	logger   *zap.Logger
}

// NewAssembler 创建报告生成器，配置了 bucket 时连接 S3
func NewAssembler(ctx context.Context, opts Options, logger *zap.Logger) (*Assembler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Assembler{opts: opts, logger: logger}
	if opts.S3.Bucket != "" {
		uploader, err := NewS3Uploader(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		a.uploader = uploader
	}
	return a, nil
}

// Enabled 是否配置了任何报告输出
func (a *Assembler) Enabled() bool {
	return a.opts.CSVDir != "" || a.opts.ParquetPath != ""
}

// Assemble 写出CSV与Parquet报告并上传，返回生成的报告位置
//
// 分析失败（ERROR、INCONCLUSIVE）的文件不生成单文件CSV，但会出现在Parquet汇总中。
func (a *Assembler) Assemble(ctx context.Context, results []*types.AnalysisResult) ([]string, error) {
	var artifacts []string

	if a.opts.CSVDir != "" {
		csvWriter := &CSVWriter{Dir: a.opts.CSVDir}
		for _, result := range results {
			if result.Status != types.StatusAuthentic && result.Status != types.StatusSuspect {
				a.logger.Debug("跳过CSV报告", zap.String("file", result.FilePath), zap.String("status", result.Status))
				continue
			}
			path, err := csvWriter.Write(result)
			if err != nil {
				return artifacts, err
			}
			artifacts = append(artifacts, path)
		}
	}

	if a.opts.ParquetPath != "" {
		pw := &ParquetWriter{Path: a.opts.ParquetPath, Compression: a.opts.ParquetCompression}
		path, err := pw.Write(results)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, path)
	}

	if a.uploader == nil {
		return artifacts, nil
	}

	uploaded := make([]string, 0, len(artifacts))
	for _, path := range artifacts {
		location, err := a.uploader.Upload(ctx, path)
		if err != nil {
			return artifacts, fmt.Errorf("上传报告失败: %w", err)
		}
		a.logger.Info("报告已上传", zap.String("file", path), zap.String("location", location))
		uploaded = append(uploaded, location)
	}
	return append(artifacts, uploaded...), nil
}
