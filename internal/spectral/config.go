package spectral

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowType 分析窗函数类型
type WindowType string

const (
	WindowHann        WindowType = "hann"
	WindowHamming     WindowType = "hamming"
	WindowBlackman    WindowType = "blackman"
	WindowRectangular WindowType = "rectangular"
)

// 默认分析参数
const (
	DefaultWindowSize     = 2048
	DefaultHopSize        = 512
	DefaultCutoffHz       = 20000.0
	DefaultCutoffRatio    = 0.001
	DefaultRolloffPercent = 0.85
	DefaultTopDB          = 80.0
)

// Config 频谱分析配置，每一项都可以单独覆盖
type Config struct {
	WindowSize     int        `json:"windowSize"`     // 帧长 N (FFT 点数)
	HopSize        int        `json:"hopSize"`        // 帧移 H，必须小于 N
	Window         WindowType `json:"window"`         // 窗函数
	CutoffHz       float64    `json:"cutoffHz"`       // 高频截止频率 (Hz)
	CutoffRatio    float64    `json:"cutoffRatio"`    // 高频能量比阈值
	RolloffPercent float64    `json:"rolloffPercent"` // 滚降点百分比 [0,1]
	DBReference    float64    `json:"dbReference"`    // 分贝参考值，<=0 表示取幅度最大值
	TopDB          float64    `json:"topDb"`          // 分贝动态范围下限，0 表示不裁剪
	Workers        int        `json:"-"`              // STFT 并行协程数，<=0 表示使用 CPU 数
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		WindowSize:     DefaultWindowSize,
		HopSize:        DefaultHopSize,
		Window:         WindowHann,
		CutoffHz:       DefaultCutoffHz,
		CutoffRatio:    DefaultCutoffRatio,
		RolloffPercent: DefaultRolloffPercent,
		TopDB:          DefaultTopDB,
		Workers:        runtime.NumCPU(),
	}
}

// Validate 检查配置是否合法
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: 窗口大小必须为正数 (%d)", ErrInvalidInput, c.WindowSize)
	}
	if c.HopSize <= 0 || c.HopSize >= c.WindowSize {
		return fmt.Errorf("%w: 帧移必须在 (0, %d) 之间 (%d)", ErrInvalidInput, c.WindowSize, c.HopSize)
	}
	if !c.Window.valid() {
		return fmt.Errorf("%w: 不支持的窗函数 %q", ErrInvalidInput, c.Window)
	}
	if c.CutoffHz <= 0 {
		return fmt.Errorf("%w: 截止频率必须为正数 (%.0f)", ErrInvalidInput, c.CutoffHz)
	}
	if c.CutoffRatio < 0 {
		return fmt.Errorf("%w: 能量比阈值不能为负 (%g)", ErrInvalidInput, c.CutoffRatio)
	}
	if c.RolloffPercent < 0 || c.RolloffPercent > 1 {
		return fmt.Errorf("%w: 滚降百分比必须在 [0,1] 之间 (%g)", ErrInvalidInput, c.RolloffPercent)
	}
	if c.TopDB < 0 {
		return fmt.Errorf("%w: top_db 不能为负 (%g)", ErrInvalidInput, c.TopDB)
	}
	return nil
}

// workerCount 根据帧数决定并行度
func (c Config) workerCount(numFrames int) int {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return max(1, min(workers, numFrames))
}

func (w WindowType) valid() bool {
	switch w {
	case WindowHann, WindowHamming, WindowBlackman, WindowRectangular:
		return true
	}
	return false
}

// Coefficients 生成长度为 n 的周期窗（FFT 分帧用）
//
// gonum 只提供对称窗，这里生成 n+1 点对称窗后去掉最后一点。
func (w WindowType) Coefficients(n int) []float64 {
	if n <= 0 {
		return nil
	}

	seq := make([]float64, n+1)
	for i := range seq {
		seq[i] = 1
	}

	switch w {
	case WindowHamming:
		window.Hamming(seq)
	case WindowBlackman:
		window.Blackman(seq)
	case WindowRectangular:
		window.Rectangular(seq)
	default:
		window.Hann(seq)
	}

	return seq[:n]
}
