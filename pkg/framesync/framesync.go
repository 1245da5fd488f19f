// Package framesync locates packet start flags in a demodulated bit stream
// and hands each candidate frame to pkg/packet for parsing.
//
// The scan keeps the flag-then-frame split of the teacher's
// modem.Demodulator (pkg/modem/bytemodem.go's preambleDetection/
// dataExtraction) as a single position loop with no state enum, and
// operates purely in the bit domain: spec.md
// §4.F is explicit that the preamble is a transmitter-side aid only and the
// start flag alone defines frame origin, so there is no signal-domain
// correlation step here.
package framesync

// StartFlagData is the start flag shared by the DATA and AUTH variants.
const StartFlagData = "11001100"

// StartFlagEncrypted is the start flag for the ENCRYPTED variant.
const StartFlagEncrypted = "11110000"

// FlagLen is the bit length of every start/end flag.
const FlagLen = 8

// Variant identifies which packet layout a start flag selects.
type Variant int

const (
	VariantDataOrAuth Variant = iota
	VariantEncrypted
)

// Candidate is one start-flag match: its bit position, the variant it
// selects, and the bits available for parsing from that position onward.
type Candidate struct {
	Index   int // bit index of the first bit of the start flag
	Variant Variant
	Rest    []bool // bits starting at Index, through the end of the input
}

// matches reports whether bits, starting at index at, equal flag written
// as "0"/"1" characters.
func matches(bits []bool, at int, flag string) bool {
	if at+len(flag) > len(bits) {
		return false
	}
	for i, c := range flag {
		want := c == '1'
		if bits[at+i] != want {
			return false
		}
	}
	return true
}

// Scan walks bits one position at a time looking for the first
// (unconsumed) occurrence of either start flag, calling consume for each
// candidate it finds. consume must return the number of bits it used from
// Candidate.Rest on success (so Scan can resume just past the frame), or 0
// to reject the candidate so Scan resumes at Index+1 (spec.md §4.F).
//
// Scan never looks inside a frame it has already consumed: once consume
// reports n > 0, the next candidate search starts at Index+n.
func Scan(bits []bool, consume func(Candidate) int) {
	i := 0
	for i+FlagLen <= len(bits) {
		var variant Variant
		switch {
		case matches(bits, i, StartFlagData):
			variant = VariantDataOrAuth
		case matches(bits, i, StartFlagEncrypted):
			variant = VariantEncrypted
		default:
			i++
			continue
		}

		n := consume(Candidate{Index: i, Variant: variant, Rest: bits[i:]})
		if n > 0 {
			i += n
		} else {
			i++
		}
	}
}
