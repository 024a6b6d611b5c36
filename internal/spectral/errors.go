package spectral

import "errors"

// 频谱分析核心的错误类型，调用方通过 errors.Is 判断
var (
	// ErrInvalidInput 波形为空、采样率非正或分析配置非法
	ErrInvalidInput = errors.New("无效输入")
	// ErrThresholdUnreachable 截止频率不低于奈奎斯特频率，没有可用的高频频点
	ErrThresholdUnreachable = errors.New("截止频率不可达")
	// ErrDegenerateSignal 总能量为零（静音）
	ErrDegenerateSignal = errors.New("信号能量为零")
)
