package analyzer

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"lossless-verifier/internal/types"

	"go.uber.org/zap"
)

// outputResult 输出单个分析结果
func (a *Analyzer) outputResult(result *types.AnalysisResult) {
	// 如果只显示疑似假无损文件，跳过其他文件
	if a.config.OnlySuspect && !result.IsSuspect() {
		return
	}

	// 静默模式，只输出疑似假无损文件路径
	if a.config.Quiet {
		if result.IsSuspect() {
			fmt.Fprintln(a.out, result.FilePath)
		}
		return
	}

	// JSON输出格式，每行一个结果
	if a.config.JSONOutput {
		jsonData, err := json.Marshal(result)
		if err != nil {
			a.logger.Error("JSON序列化失败", zap.String("file", result.FilePath), zap.Error(err))
			return
		}
		fmt.Fprintln(a.out, string(jsonData))
		return
	}

	a.printDetailedResult(result)
}

// printDetailedResult 打印详细结果
func (a *Analyzer) printDetailedResult(result *types.AnalysisResult) {
	w := a.out
	fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(result.FilePath))
	fmt.Fprintf(w, "路径: %s\n", result.FilePath)
	if result.Format != "" {
		fmt.Fprintf(w, "格式: %s\n", result.Format)
	}
	fmt.Fprintf(w, "状态: %s\n", result.Status)

	if result.Error != "" {
		fmt.Fprintf(w, "错误: %s\n", result.Error)
		return
	}

	details := result.Analysis

	// 基本信息
	fmt.Fprintf(w, "采样率: %d Hz\n", details.SampleRate)
	if details.BitDepth > 0 {
		fmt.Fprintf(w, "位深度: %d bit\n", details.BitDepth)
	}
	fmt.Fprintf(w, "声道数: %d\n", details.Channels)
	fmt.Fprintf(w, "时长: %.2f 秒\n", details.Duration)

	// 元数据
	if result.Metadata.Title != "" {
		fmt.Fprintf(w, "标题: %s\n", result.Metadata.Title)
	}
	if result.Metadata.Artist != "" {
		fmt.Fprintf(w, "艺术家: %s\n", result.Metadata.Artist)
	}
	if result.Metadata.Album != "" {
		fmt.Fprintf(w, "专辑: %s\n", result.Metadata.Album)
	}

	// 频谱特征
	for _, f := range details.Features.Table() {
		fmt.Fprintf(w, "%s: %.4f\n", f.Name, f.Value)
	}
	fmt.Fprintf(w, "最高有效频率: %.0f Hz\n", details.Lowpass.MaxFrequencyHz)
	if details.Lowpass.CodecHint != "" {
		fmt.Fprintf(w, "接近的有损截断: %s\n", details.Lowpass.CodecHint)
	}

	if result.Status == types.StatusInconclusive {
		fmt.Fprintf(w, "分析结果: %s\n", details.Details)
		fmt.Fprintf(w, "❔ %s\n", details.Conclusion)
		return
	}

	fmt.Fprintf(w, "高频能量比: %.6f (阈值 %.6f, 截止频率 %.0f Hz)\n", details.Ratio, details.CutoffRatio, details.CutoffHz)
	fmt.Fprintf(w, "高频幅度占比: %.4f%%\n", details.HighFrequencyShare*100)
	fmt.Fprintf(w, "分析结果: %s\n", details.Details)

	if result.IsSuspect() {
		fmt.Fprintf(w, "⚠️  警告: %s\n", details.Conclusion)
	} else {
		fmt.Fprintf(w, "✅ %s\n", details.Conclusion)
	}
}

// Summary 批量分析统计
type Summary struct {
	Total        int
	Authentic    int
	Suspect      int
	Inconclusive int
	Errors       int
}

// Summarize 统计各状态的文件数
func Summarize(results []*types.AnalysisResult) Summary {
	s := Summary{Total: len(results)}
	for _, result := range results {
		switch result.Status {
		case types.StatusAuthentic:
			s.Authentic++
		case types.StatusSuspect:
			s.Suspect++
		case types.StatusInconclusive:
			s.Inconclusive++
		case types.StatusError:
			s.Errors++
		}
	}
	return s
}

// printSummary 打印统计摘要
func (a *Analyzer) printSummary(results []*types.AnalysisResult) {
	s := Summarize(results)
	w := a.out

	fmt.Fprintf(w, "\n=== 分析统计 ===\n")
	fmt.Fprintf(w, "总文件数: %d\n", s.Total)
	fmt.Fprintf(w, "真无损文件: %d\n", s.Authentic)
	fmt.Fprintf(w, "疑似假无损文件: %d\n", s.Suspect)
	if s.Inconclusive > 0 {
		fmt.Fprintf(w, "无法判定文件: %d\n", s.Inconclusive)
	}
	if s.Errors > 0 {
		fmt.Fprintf(w, "错误文件: %d\n", s.Errors)
	}

	switch {
	case s.Suspect > 0:
		fmt.Fprintf(w, "\n⚠️  发现 %d 个疑似假无损文件，建议进一步检查！\n", s.Suspect)
	case s.Authentic == s.Total:
		fmt.Fprintf(w, "\n✅ 所有文件都看起来是真实的无损音频\n")
	}
}
