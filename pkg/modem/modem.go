// Package modem implements the continuous-phase binary FSK synthesizer and
// the windowed tone-energy demodulator that turn bit sequences into 16-bit
// PCM samples and back.
//
// The oscillator mirrors the shape of the teacher's CarrierConfig
// (Amplitude/Freq/Phase/SampleRate → New()), generalized to carry phase
// forward across bit boundaries rather than resetting it per call, which is
// what makes this CPFSK instead of plain BFSK (spec.md §4.D, §9).
package modem

import "math"

// Config holds the modem parameters. The wire format fixes these exactly
// (spec.md §3); Default returns that fixed configuration. A caller may
// still build a Config with different values for testing at a smaller
// time/sample scale, but two modems that must interoperate need matching
// parameters.
type Config struct {
	SampleRate  float64 // samples per second
	F0          float64 // Hz, encodes bit 0
	F1          float64 // Hz, encodes bit 1
	BitDuration float64 // seconds per bit
	Amplitude   float64 // fraction of full scale, 0..1
}

// Default returns the wire format's fixed modem parameters: 44100 Hz
// sample rate, 17000/18500 Hz tones, 80 ms per bit, amplitude 0.5.
func Default() Config {
	return Config{
		SampleRate:  44100,
		F0:          17000,
		F1:          18500,
		BitDuration: 0.080,
		Amplitude:   0.5,
	}
}

// SamplesPerBit returns the number of PCM samples spanned by one bit. For
// the default configuration this is 3528.
func (c Config) SamplesPerBit() int {
	return int(math.Round(c.BitDuration * c.SampleRate))
}

// SilenceGuardSamples returns the number of zero samples prepended and
// appended around a packet (50 ms, spec.md §4.D).
func (c Config) SilenceGuardSamples() int {
	return int(math.Round(0.050 * c.SampleRate))
}

func (c Config) freq(bit bool) float64 {
	if bit {
		return c.F1
	}
	return c.F0
}

// Oscillator is a continuous phase accumulator. Its lifetime is scoped to
// one packet's modulation: create a zero-valued Oscillator per Modulate
// call, never share one across packets (spec.md §9).
type Oscillator struct {
	Phase float64 // radians
}

// EmitBit appends samplesPerBit PCM samples for one bit at freq Hz,
// advancing the phase continuously so there is no discontinuity at the
// bit boundary (the "C" in CPFSK).
func (o *Oscillator) EmitBit(out []int16, freq float64, cfg Config) []int16 {
	n := cfg.SamplesPerBit()
	step := 2 * math.Pi * freq / cfg.SampleRate
	for i := 0; i < n; i++ {
		s := cfg.Amplitude * 32767 * math.Sin(o.Phase+step*float64(i+1))
		out = append(out, int16(math.Round(s)))
	}
	o.Phase = math.Mod(o.Phase+step*float64(n), 2*math.Pi)
	return out
}

// Modulate synthesizes bits into PCM samples: a 50 ms leading silence
// guard, the continuous-phase BFSK waveform for every bit in order, and a
// 50 ms trailing silence guard.
func Modulate(bits []bool, cfg Config) []int16 {
	n := cfg.SamplesPerBit()
	guard := cfg.SilenceGuardSamples()
	out := make([]int16, 0, 2*guard+len(bits)*n)

	out = append(out, make([]int16, guard)...)

	var osc Oscillator
	for _, bit := range bits {
		out = osc.EmitBit(out, cfg.freq(bit), cfg)
	}

	out = append(out, make([]int16, guard)...)
	return out
}

// Demodulate partitions samples into non-overlapping SamplesPerBit()-sized
// windows starting at sample 0 (trailing leftover samples shorter than one
// window are discarded), and emits one bit per window by comparing Hanning
// windowed tone energy at F0 and F1. Ties (E1 == E0) resolve to bit 0,
// per spec.md §9(a).
func Demodulate(samples []int16, cfg Config) []bool {
	n := cfg.SamplesPerBit()
	if n <= 0 {
		return nil
	}
	numWindows := len(samples) / n
	bits := make([]bool, numWindows)

	window := make([]float64, n)
	hann := hanningWindow(n)

	for w := 0; w < numWindows; w++ {
		base := w * n
		for i := 0; i < n; i++ {
			window[i] = (float64(samples[base+i]) / 32768.0) * hann[i]
		}
		e0 := goertzelMagnitude(window, cfg.F0, cfg.SampleRate)
		e1 := goertzelMagnitude(window, cfg.F1, cfg.SampleRate)
		bits[w] = e1 > e0
	}
	return bits
}

func hanningWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// goertzelMagnitude returns the magnitude of the DFT bin nearest freq,
// computed directly as a quadrature (cosine/sine) correlation sum instead
// of a general-purpose FFT — the same single-bin value the Goertzel
// recurrence yields, here summed term by term (see DESIGN.md for why no
// FFT library is used here).
func goertzelMagnitude(window []float64, freq, sampleRate float64) float64 {
	n := len(window)
	// Bin index nearest freq, then convert back to the exact bin frequency
	// so the correlation targets the same bin an FFT would have picked.
	k := math.Round(float64(n) * freq / sampleRate)
	binFreq := k * sampleRate / float64(n)
	omega := 2 * math.Pi * binFreq / sampleRate

	var real, imag float64
	for i, s := range window {
		real += s * math.Cos(omega*float64(i))
		imag -= s * math.Sin(omega*float64(i))
	}
	return math.Hypot(real, imag)
}
