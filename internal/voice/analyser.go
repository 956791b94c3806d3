package voice

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8

	minDecibels = -100.0
	maxDecibels = -30.0
)

// Analyser turns a block of samples into a loudness level in [0, 1). It
// follows the byte frequency data model of browser analyser nodes: a
// Blackman window, magnitude spectrum scaled by 1/N, exponential smoothing
// across blocks, then decibels mapped onto 0..255.
type Analyser struct {
	size      int
	smoothing float64
	window    []float64
	smoothed  []float64
	frame     []float64
}

func NewAnalyser(fftSize int, smoothing float64) (*Analyser, error) {
	if fftSize < 32 || fftSize > 32768 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size %d must be a power of two between 32 and 32768", fftSize)
	}
	if smoothing < 0 || smoothing > 1 || math.IsNaN(smoothing) {
		return nil, fmt.Errorf("smoothing %v must be within [0, 1]", smoothing)
	}
	return &Analyser{
		size:      fftSize,
		smoothing: smoothing,
		window:    window.Blackman(fftSize),
		smoothed:  make([]float64, fftSize/2),
		frame:     make([]float64, fftSize),
	}, nil
}

func (a *Analyser) Size() int {
	return a.size
}

// Level analyses exactly Size() mono samples. Shorter input is zero padded.
func (a *Analyser) Level(samples []int16) float64 {
	for i := range a.frame {
		var v float64
		if i < len(samples) {
			v = float64(samples[i]) / 32768
		}
		a.frame[i] = v * a.window[i]
	}

	spectrum := fft.FFTReal(a.frame)
	n := float64(a.size)
	scale := 255 / (maxDecibels - minDecibels)

	var sum float64
	for k := range a.smoothed {
		magnitude := cmplx.Abs(spectrum[k]) / n
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*magnitude

		db := 20 * math.Log10(a.smoothed[k])
		b := math.Floor(scale * (db - minDecibels))
		switch {
		case math.IsNaN(b) || b < 0:
			b = 0
		case b > 255:
			b = 255
		}
		sum += b
	}

	return sum / float64(len(a.smoothed)) / 256
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

// mixdown averages interleaved channels into mono.
func mixdown(block []int16, channels int) []int16 {
	if channels <= 1 {
		return block
	}
	mono := make([]int16, len(block)/channels)
	for i := range mono {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(block[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}
