package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lossless-verifier/internal/types"

	"github.com/parquet-go/parquet-go"
)

// SummaryRow 批量汇总表中的一行，对应一个音频文件
type SummaryRow struct {
	FilePath           string  `parquet:"file_path"`
	Format             string  `parquet:"format"`
	Status             string  `parquet:"status"`
	Ratio              float64 `parquet:"ratio"`
	HighFrequencyShare float64 `parquet:"high_frequency_share"`
	CutoffHz           float64 `parquet:"cutoff_hz"`
	CutoffRatio        float64 `parquet:"cutoff_ratio"`
	CentroidHz         float64 `parquet:"centroid_hz"`
	BandwidthHz        float64 `parquet:"bandwidth_hz"`
	RolloffHz          float64 `parquet:"rolloff_hz"`
	Flatness           float64 `parquet:"flatness"`
	MaxFrequencyHz     float64 `parquet:"max_frequency_hz"`
	LowpassCutoffHz    float64 `parquet:"lowpass_cutoff_hz"`
	CodecHint          string  `parquet:"codec_hint"`
	SampleRate         int64   `parquet:"sample_rate"`
	BitDepth           int64   `parquet:"bit_depth"`
	Channels           int64   `parquet:"channels"`
	DurationSeconds    float64 `parquet:"duration_seconds"`
	Error              string  `parquet:"error"`
}

// NewSummaryRow 从分析结果生成汇总行
func NewSummaryRow(result *types.AnalysisResult) SummaryRow {
	d := result.Analysis
	return SummaryRow{
		FilePath:           result.FilePath,
		Format:             result.Format,
		Status:             result.Status,
		Ratio:              d.Ratio,
		HighFrequencyShare: d.HighFrequencyShare,
		CutoffHz:           d.CutoffHz,
		CutoffRatio:        d.CutoffRatio,
		CentroidHz:         d.Features.CentroidHz,
		BandwidthHz:        d.Features.BandwidthHz,
		RolloffHz:          d.Features.RolloffHz,
		Flatness:           d.Features.Flatness,
		MaxFrequencyHz:     d.Lowpass.MaxFrequencyHz,
		LowpassCutoffHz:    d.Lowpass.CutoffHz,
		CodecHint:          d.Lowpass.CodecHint,
		SampleRate:         int64(d.SampleRate),
		BitDepth:           int64(d.BitDepth),
		Channels:           int64(d.Channels),
		DurationSeconds:    d.Duration,
		Error:              result.Error,
	}
}

// ParquetCompression 按名称选择压缩算法，默认 snappy
func ParquetCompression(name string) parquet.WriterOption {
	switch strings.ToLower(name) {
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	case "gzip", "gz":
		return parquet.Compression(&parquet.Gzip)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// WriteParquet 将全部结果写成一个 Parquet 文件
func WriteParquet(w io.Writer, results []*types.AnalysisResult, compression string) error {
	rows := make([]SummaryRow, 0, len(results))
	for _, result := range results {
		rows = append(rows, NewSummaryRow(result))
	}

	pw := parquet.NewGenericWriter[SummaryRow](w, ParquetCompression(compression))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("写入Parquet失败: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("写入Parquet失败: %w", err)
	}
	return nil
}

// ParquetWriter 将批量汇总写入本地文件
type ParquetWriter struct {
	Path        string
	Compression string
}

// Write 写出汇总文件并返回路径
func (p *ParquetWriter) Write(results []*types.AnalysisResult) (string, error) {
	if dir := filepath.Dir(p.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("创建报告目录失败: %w", err)
		}
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return "", fmt.Errorf("创建Parquet文件失败: %w", err)
	}
	if err := WriteParquet(f, results, p.Compression); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("关闭Parquet文件失败: %w", err)
	}
	return p.Path, nil
}

// ReadParquet 读取汇总文件中的全部行
func ReadParquet(ra io.ReaderAt) ([]SummaryRow, error) {
	gr := parquet.NewGenericReader[SummaryRow](ra)
	defer gr.Close()

	out := make([]SummaryRow, 0, 64)
	batch := make([]SummaryRow, 64)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
