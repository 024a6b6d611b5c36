package spectral

import (
	"fmt"
	"sync"
	"time"

	"github.com/mjibson/go-dsp/fft"
)

// Waveform 单声道采样序列及其采样率，加载后只读
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration 返回波形时长
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

func (w Waveform) validate() error {
	if len(w.Samples) == 0 {
		return fmt.Errorf("%w: 音频采样数据为空", ErrInvalidInput)
	}
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: 采样率必须为正数 (%d)", ErrInvalidInput, w.SampleRate)
	}
	return nil
}

// Spectrogram 短时傅里叶变换结果
type Spectrogram struct {
	Data       [][]complex128 // [帧][频点]
	SampleRate int
	WindowSize int
	HopSize    int
}

// Frames 返回时间帧数
func (s *Spectrogram) Frames() int {
	return len(s.Data)
}

// Bins 返回频点数 (N/2+1)
func (s *Spectrogram) Bins() int {
	return s.WindowSize/2 + 1
}

// At 按 (频点, 帧) 取值
func (s *Spectrogram) At(bin, frame int) complex128 {
	return s.Data[frame][bin]
}

// Frequencies 返回频率轴
func (s *Spectrogram) Frequencies() []float64 {
	return FrequencyAxis(s.SampleRate, s.WindowSize)
}

// FrequencyAxis 返回每个频点对应的频率 k*sampleRate/fftSize，长度 fftSize/2+1
func FrequencyAxis(sampleRate, fftSize int) []float64 {
	if fftSize <= 0 {
		return nil
	}

	freqs := make([]float64, fftSize/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}
	return freqs
}

// STFT 计算短时傅里叶变换
//
// 第 t 帧以采样 t*H 为中心，越界部分补零，共 ceil(len/H) 帧。各帧互相独立，
// 多个协程只写各自的帧，因此结果与并行度无关。
func STFT(w Waveform, cfg Config) (*Spectrogram, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.WindowSize
	hop := cfg.HopSize
	numFrames := (len(w.Samples) + hop - 1) / hop
	bins := n/2 + 1
	coeffs := cfg.Window.Coefficients(n)

	data := make([][]complex128, numFrames)
	jobs := make(chan int, numFrames)
	for t := range numFrames {
		jobs <- t
	}
	close(jobs)

	var wg sync.WaitGroup
	for range cfg.workerCount(numFrames) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// 每个协程复用自己的帧缓冲
			frame := make([]float64, n)
			for t := range jobs {
				fillFrame(frame, w.Samples, t*hop-n/2, coeffs)
				spectrum := fft.FFTReal(frame)

				row := make([]complex128, bins)
				copy(row, spectrum[:bins])
				data[t] = row
			}
		}()
	}
	wg.Wait()

	return &Spectrogram{
		Data:       data,
		SampleRate: w.SampleRate,
		WindowSize: n,
		HopSize:    hop,
	}, nil
}

// fillFrame 从 start 开始取一帧并加窗，越界处补零
func fillFrame(frame, samples []float64, start int, coeffs []float64) {
	for i := range frame {
		idx := start + i
		if idx < 0 || idx >= len(samples) {
			frame[i] = 0
			continue
		}
		frame[i] = samples[idx] * coeffs[i]
	}
}
