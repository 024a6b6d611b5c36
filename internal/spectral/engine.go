package spectral

import (
	"errors"
)

// Engine 频谱真伪分析流水线，所有调用方共用
type Engine struct {
	cfg Config
}

// Result 一次分析的全部中间量与结论
type Result struct {
	Magnitude *MagnitudeSpectrogram
	Features  FeatureSet
	Ratio     RatioResult
	Verdict   *Verdict // 高频能量比不可用时为 nil
	Lowpass   Lowpass

	dbReference float64
	topDB       float64
}

// Decibels 按引擎配置的参考值生成分贝谱，供报告使用
func (r *Result) Decibels() [][]float64 {
	return ToDB(r.Magnitude, r.dbReference, r.topDB)
}

// NewEngine 创建分析引擎
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config 返回引擎配置
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze 对波形执行完整分析: STFT -> 幅度 -> 特征/高频能量比 -> 判定
//
// 截止频率不可达时返回 ErrThresholdUnreachable，同时返回已计算出的特征（Verdict 为 nil），
// 调用方应将其视为“高频信息不足”而不是一个数值比。其他错误时结果为 nil。
func (e *Engine) Analyze(w Waveform) (*Result, error) {
	spec, err := STFT(w, e.cfg)
	if err != nil {
		return nil, err
	}

	mag := Magnitude(spec)
	result := &Result{
		Magnitude:   mag,
		Features:    ExtractFeatures(mag, e.cfg.RolloffPercent),
		Lowpass:     EstimateLowpass(mag),
		dbReference: e.cfg.DBReference,
		topDB:       e.cfg.TopDB,
	}

	ratio, err := HighFrequencyRatio(mag, e.cfg.CutoffHz)
	if errors.Is(err, ErrThresholdUnreachable) {
		return result, err
	}
	if err != nil {
		return nil, err
	}

	verdict := Classify(ratio, e.cfg.CutoffRatio)
	result.Ratio = ratio
	result.Verdict = &verdict
	return result, nil
}
