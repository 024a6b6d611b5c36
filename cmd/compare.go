package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"lossless-verifier/internal/decoder"
	"lossless-verifier/internal/spectral"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare <a> <b>",
	Short: "对比两个音频文件的分贝频谱差异",
	Long: `对两个采样率相同的音频文件分别计算分贝频谱（各自以峰值为参考），输出 A - B 的分频段平均差值、
平均绝对差值以及平均频谱的相关系数。常用于比较原始文件与转码后的文件。`,
	Args:         cobra.ExactArgs(2),
	RunE:         runCompare,
	SilenceUsage: true,
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "以JSON格式输出结果")
	compareCmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg 路径，设置后启用有损格式解码")
	compareCmd.Flags().StringVar(&ffprobePath, "ffprobe", "ffprobe", "ffprobe 路径")
	compareCmd.Flags().DurationVar(&decodeTimeout, "decode-timeout", decoder.DefaultDecodeTimeout, "单个文件 ffmpeg 解码超时")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := spectralConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("参数错误: %w", err)
	}

	registry := decoder.NewDecoderRegistry()
	if ffmpegPath != "" {
		ffmpeg, err := decoder.NewFFmpegDecoder(ffmpegPath, ffprobePath, decodeTimeout)
		if err != nil {
			log.Warn("ffmpeg 不可用，仅支持 WAV/FLAC", zap.Error(err))
		} else {
			registry.Register(ffmpeg)
		}
	}

	a, err := registry.LoadWaveform(args[0])
	if err != nil {
		return err
	}
	b, err := registry.LoadWaveform(args[1])
	if err != nil {
		return err
	}

	cmp, err := spectral.Compare(a, b, cfg)
	if err != nil {
		return err
	}
	log.Debug("对比完成", zap.Int("frames", cmp.Frames), zap.Float64("meanAbsDifferenceDb", cmp.MeanAbsDifferenceDB))

	out := cmd.OutOrStdout()
	if compareJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}

	printComparison(out, args[0], args[1], cmp)
	return nil
}

// printComparison 打印频段对比表
func printComparison(w io.Writer, pathA, pathB string, cmp *spectral.Comparison) {
	fmt.Fprintf(w, "A: %s\n", pathA)
	fmt.Fprintf(w, "B: %s\n", pathB)
	fmt.Fprintf(w, "采样率: %d Hz, 对比帧数: %d\n\n", cmp.SampleRate, cmp.Frames)

	fmt.Fprintf(w, "%-20s %12s\n", "频段", "A - B (dB)")
	for _, band := range cmp.Bands {
		label := fmt.Sprintf("%.0f-%.0f Hz", band.LowHz, band.HighHz)
		fmt.Fprintf(w, "%-20s %12.2f\n", label, band.MeanDB)
	}

	fmt.Fprintf(w, "\n平均绝对差值: %.2f dB\n", cmp.MeanAbsDifferenceDB)
	fmt.Fprintf(w, "频谱相关系数: %.4f\n", cmp.SpectralCorrelation)
}
