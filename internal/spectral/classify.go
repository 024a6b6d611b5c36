package spectral

import (
	"fmt"
	"strings"
)

// Class 真伪判定结果
type Class int

const (
	Authentic Class = iota // 保留了截止频率以上的能量
	Suspect                // 高频能量不足，疑似由有损格式转换
)

func (c Class) String() string {
	switch c {
	case Authentic:
		return "AUTHENTIC"
	case Suspect:
		return "SUSPECT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 以字符串形式序列化
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 从字符串解析
func (c *Class) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "AUTHENTIC":
		*c = Authentic
	case "SUSPECT":
		*c = Suspect
	default:
		return fmt.Errorf("未知的判定结果: %s", text)
	}
	return nil
}

// Verdict 一次分析的结论，生成后只读
type Verdict struct {
	Class       Class   `json:"class"`
	Ratio       float64 `json:"ratio"`
	CutoffHz    float64 `json:"cutoffHz"`
	CutoffRatio float64 `json:"cutoffRatio"`
	Conclusion  string  `json:"conclusion"`
	Details     string  `json:"details"`
}

// Classify 固定阈值判定: ratio > cutoffRatio 为 Authentic，否则为 Suspect
//
// 这是启发式规则，不是来源证明；没有滞回，也不区分曲风。
func Classify(r RatioResult, cutoffRatio float64) Verdict {
	v := Verdict{
		Ratio:       r.Ratio,
		CutoffHz:    r.CutoffHz,
		CutoffRatio: cutoffRatio,
	}

	if r.Ratio > cutoffRatio {
		v.Class = Authentic
		v.Conclusion = fmt.Sprintf("文件看起来是真实的无损音频，在 %.0f Hz 以上检测到明显能量", r.CutoffHz)
		v.Details = fmt.Sprintf("高频能量比为 %.4f（阈值 %.4f）。音频在 %.0f Hz 以上的频段保留了能量，"+
			"这是真实无损文件的典型特征，因此不太可能由有损格式转换而来。该结论基于单一阈值的启发式判断。",
			r.Ratio, cutoffRatio, r.CutoffHz)
		return v
	}

	v.Class = Suspect
	v.Conclusion = fmt.Sprintf("文件可能是假无损，%.0f Hz 以上能量有限", r.CutoffHz)
	v.Details = fmt.Sprintf("高频能量比为 %.4f（阈值 %.4f）。音频在 %.0f Hz 以上的频段缺少明显能量，"+
		"这与 MP3 等有损编码的低通特征一致，文件可能由有损格式转换而来。该结论基于单一阈值的启发式判断。",
		r.Ratio, cutoffRatio, r.CutoffHz)
	return v
}
