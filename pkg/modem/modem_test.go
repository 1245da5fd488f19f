package modem

import (
	"math"
	"testing"
)

func TestModulateDemodulateRoundTrip(t *testing.T) {
	cfg := Default()
	bits := []bool{true, false, true, true, false, false, true, false, true, false, true, true}

	// Demodulate only the core waveform, bypassing the silence guards:
	// those exist to help a bit-stream scanner find the packet (pkg/framesync),
	// not to stay aligned with the fixed-size demodulation windows.
	var osc Oscillator
	var core []int16
	for _, bit := range bits {
		freq := cfg.F0
		if bit {
			freq = cfg.F1
		}
		core = osc.EmitBit(core, freq, cfg)
	}

	got := Demodulate(core, cfg)
	if len(got) != len(bits) {
		t.Fatalf("decoded %d bits, want %d", len(got), len(bits))
	}
	for i := range bits {
		if got[i] != bits[i] {
			t.Errorf("bit %d: got %v, want %v", i, got[i], bits[i])
		}
	}
}

func TestPhaseContinuity(t *testing.T) {
	cfg := Default()
	bits := []bool{false, true, false, true}
	samples := Modulate(bits, cfg)

	maxSlew := 2 * math.Pi * cfg.F1 / cfg.SampleRate * cfg.Amplitude * 32767 * 1.05 // small tolerance for rounding

	for i := 1; i < len(samples); i++ {
		diff := math.Abs(float64(samples[i]) - float64(samples[i-1]))
		if diff > maxSlew {
			t.Fatalf("sample %d: slew %v exceeds bound %v", i, diff, maxSlew)
		}
	}
}

func TestDemodulateTieBreaksToZero(t *testing.T) {
	cfg := Default()
	silence := make([]int16, cfg.SamplesPerBit())
	got := Demodulate(silence, cfg)
	if len(got) != 1 || got[0] != false {
		t.Fatalf("expected a single false bit for silence, got %v", got)
	}
}

func TestDemodulateDiscardsTrailingPartialWindow(t *testing.T) {
	cfg := Default()
	samples := make([]int16, cfg.SamplesPerBit()+10)
	got := Demodulate(samples, cfg)
	if len(got) != 1 {
		t.Fatalf("expected 1 window, got %d", len(got))
	}
}

func TestOneBitTonesDistinguishable(t *testing.T) {
	cfg := Default()
	zero := Modulate([]bool{false}, cfg)
	one := Modulate([]bool{true}, cfg)

	// strip the silence guards before decoding a single-bit packet.
	guard := cfg.SilenceGuardSamples()
	zeroBit := Demodulate(zero[guard:len(zero)-guard], cfg)
	oneBit := Demodulate(one[guard:len(one)-guard], cfg)

	if len(zeroBit) != 1 || zeroBit[0] != false {
		t.Errorf("expected bit 0 to decode as false, got %v", zeroBit)
	}
	if len(oneBit) != 1 || oneBit[0] != true {
		t.Errorf("expected bit 1 to decode as true, got %v", oneBit)
	}
}
