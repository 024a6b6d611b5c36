package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"lossless-verifier/internal/types"
)

// CSVSuffix 单文件特征报告的文件名后缀
const CSVSuffix = "_authenticity_analysis.csv"

// FeatureRows 生成 Feature,Value 表格，不含表头
func FeatureRows(result *types.AnalysisResult) [][]string {
	d := result.Analysis
	rows := [][]string{
		{"High Frequency Content Ratio", fmt.Sprintf("%.4f", d.Ratio)},
		{"High Frequency Share", fmt.Sprintf("%.6f", d.HighFrequencyShare)},
		{"Cutoff Frequency (Hz)", formatFloat(d.CutoffHz)},
		{"Cutoff Ratio", formatFloat(d.CutoffRatio)},
		{"Status", result.Status},
		{"Authenticity Conclusion", d.Conclusion},
	}

	for _, f := range d.Features.Table() {
		rows = append(rows, []string{f.Name, fmt.Sprintf("%.2f", f.Value)})
	}

	rows = append(rows,
		[]string{"Max Effective Frequency (Hz)", formatFloat(d.Lowpass.MaxFrequencyHz)},
		[]string{"Lowpass Cutoff (Hz)", formatFloat(d.Lowpass.CutoffHz)},
	)
	if d.Lowpass.CodecHint != "" {
		rows = append(rows, []string{"Codec Hint", d.Lowpass.CodecHint})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteFeaturesCSV 写出单个文件的特征报告
func WriteFeaturesCSV(w io.Writer, result *types.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Feature", "Value"}); err != nil {
		return err
	}
	if err := cw.WriteAll(FeatureRows(result)); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}
	return nil
}

// CSVWriter 在目录中为每个文件生成一份CSV报告
type CSVWriter struct {
	Dir string
}

// CSVFileName 返回音频文件对应的报告文件名
func CSVFileName(audioPath string) string {
	return filepath.Base(audioPath) + CSVSuffix
}

// Write 写出报告并返回报告路径
func (c *CSVWriter) Write(result *types.AnalysisResult) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	path := filepath.Join(c.Dir, CSVFileName(result.FilePath))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建CSV文件失败: %w", err)
	}

	if err := WriteFeaturesCSV(f, result); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("关闭CSV文件失败: %w", err)
	}
	return path, nil
}
