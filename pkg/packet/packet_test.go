package packet

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acousticlink/pkg/modem"
)

// Scenario 1 (spec.md §8): payload "Hi", unit 1.
func TestScenarioData(t *testing.T) {
	samples, err := BuildData([]byte("Hi"), UnitID(1))
	require.NoError(t, err)

	res := DecodeFirst(samples, Options{ExpectedMode: ModeData})
	require.Equal(t, KindDataOk, res.Kind)
	assert.Equal(t, UnitID(1), res.UnitID)
	assert.Equal(t, []byte("Hi"), res.Payload)
}

// Scenario 2/3: AUTH, correct vs wrong expected secret.
func TestScenarioAuth(t *testing.T) {
	samples, err := BuildAuth("door_key_123", UnitID(0))
	require.NoError(t, err)

	ok := DecodeFirst(samples, Options{ExpectedMode: ModeAuth, ExpectedSecret: "door_key_123"})
	require.Equal(t, KindAuthOk, ok.Kind)
	assert.True(t, ok.Granted)

	bad := DecodeFirst(samples, Options{ExpectedMode: ModeAuth, ExpectedSecret: "wrong"})
	require.Equal(t, KindAuthOk, bad.Kind)
	assert.False(t, bad.Granted)
}

// Scenario 4/5/6: ENCRYPTED with correct password, wrong password, no password.
func TestScenarioEncrypted(t *testing.T) {
	samples, err := BuildEncrypted([]byte("Secret Message"), "password123", UnitID(3))
	require.NoError(t, err)

	ok := DecodeFirst(samples, Options{Password: "password123"})
	require.Equal(t, KindEncryptedOk, ok.Kind)
	assert.Equal(t, []byte("Secret Message"), ok.Payload)

	failed := DecodeFirst(samples, Options{Password: "wrongpass"})
	require.Equal(t, KindEncryptedFailed, failed.Kind)

	locked := DecodeFirst(samples, Options{})
	require.Equal(t, KindEncryptedLocked, locked.Kind)
}

// Scenario 7: no start flag anywhere.
func TestScenarioInvalid(t *testing.T) {
	samples := make([]int16, 44100*2) // 2s of silence, which demodulates as all 0 bits
	res := DecodeFirst(samples, Options{ExpectedMode: ModeData})
	assert.Equal(t, KindInvalid, res.Kind)
}

func TestInvariantDataRoundTripAllLengths(t *testing.T) {
	for _, n := range []int{0, 1, 255} {
		payload := make([]byte, n)
		rand.Read(payload)

		samples, err := BuildData(payload, UnitID(5))
		require.NoError(t, err)

		res := DecodeFirst(samples, Options{ExpectedMode: ModeData})
		require.Equal(t, KindDataOk, res.Kind, "n=%d", n)
		assert.Equal(t, payload, res.Payload, "n=%d", n)
		assert.Equal(t, UnitID(5), res.UnitID)
	}
}

func TestInvariantEncryptedBoundary(t *testing.T) {
	// L == 44: empty plaintext blob.
	samples, err := BuildEncrypted(nil, "k", UnitID(2))
	require.NoError(t, err)
	res := DecodeFirst(samples, Options{Password: "k"})
	require.Equal(t, KindEncryptedOk, res.Kind)
	assert.Empty(t, res.Payload)
}

func TestInvariantEncryptedMaxPlaintext(t *testing.T) {
	payload := make([]byte, 211) // blob = 211+44 = 255, the largest that fits
	rand.Read(payload)

	samples, err := BuildEncrypted(payload, "k", UnitID(1))
	require.NoError(t, err)

	res := DecodeFirst(samples, Options{Password: "k"})
	require.Equal(t, KindEncryptedOk, res.Kind)
	assert.Equal(t, payload, res.Payload)
}

func TestBuildEncryptedPayloadTooLarge(t *testing.T) {
	payload := make([]byte, 212) // blob = 256, exceeds the 255-byte length field
	_, err := BuildEncrypted(payload, "k", UnitID(1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestBuildDataPayloadTooLarge(t *testing.T) {
	payload := make([]byte, 256)
	_, err := BuildData(payload, UnitID(1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestAuthAllZeroSecret(t *testing.T) {
	secret := string([]byte{0, 0, 0, 0})
	samples, err := BuildAuth(secret, UnitID(1))
	require.NoError(t, err)

	res := DecodeFirst(samples, Options{ExpectedMode: ModeAuth, ExpectedSecret: secret})
	require.Equal(t, KindAuthOk, res.Kind)
	assert.True(t, res.Granted)
}

func TestBuildEncryptedFreshEachCall(t *testing.T) {
	a, err := BuildEncrypted([]byte("hello"), "k", UnitID(1))
	require.NoError(t, err)
	b, err := BuildEncrypted([]byte("hello"), "k", UnitID(1))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt+nonce must change the waveform")
}

func TestInvalidUnitID(t *testing.T) {
	_, err := BuildData([]byte("x"), UnitID(16))
	assert.Error(t, err)
}

func TestSilenceGuardsDoNotChangeDecodedResult(t *testing.T) {
	samples, err := BuildData([]byte("Hi"), UnitID(1))
	require.NoError(t, err)

	padded := make([]int16, 0, len(samples)+10000)
	padded = append(padded, make([]int16, 5000)...)
	padded = append(padded, samples...)
	padded = append(padded, make([]int16, 5000)...)

	res := DecodeFirst(padded, Options{ExpectedMode: ModeData})
	require.Equal(t, KindDataOk, res.Kind)
	assert.Equal(t, []byte("Hi"), res.Payload)
}

func TestMultiplePacketsDecodedInOrder(t *testing.T) {
	a, err := BuildData([]byte("first"), UnitID(1))
	require.NoError(t, err)
	b, err := BuildData([]byte("second"), UnitID(2))
	require.NoError(t, err)

	combined := append(append([]int16{}, a...), b...)
	results := Decode(combined, Options{ExpectedMode: ModeData})

	require.Len(t, results, 2)
	assert.Equal(t, []byte("first"), results[0].Payload)
	assert.Equal(t, []byte("second"), results[1].Payload)
}

// zeroBit overwrites the samples for frame bit index bitIndex (counting
// from the first bit after the leading silence guard) with silence.
// Decode's demodulation windows start at sample 0, so the window that
// carries this bit also covers the first 1323 samples of bit bitIndex+1:
// the silenced bit reads as 0 (tie-break rule, spec.md §9(a), or the F0
// tone winning) only when that next bit is 0 or is silenced too.
func zeroBit(samples []int16, bitIndex int) {
	cfg := modem.Default()
	n := cfg.SamplesPerBit()
	start := cfg.SilenceGuardSamples() + bitIndex*n
	for i := start; i < start+n; i++ {
		samples[i] = 0
	}
}

// TestDecodeSkipsCorruptedChecksumAndFindsNextPacket corrupts one payload
// bit of a valid DATA frame so its checksum no longer matches, then
// appends a second, untouched frame. Decode must discard the corrupt
// frame (spec.md §4.F: "discard the frame, resume the scan at bit i+1")
// rather than surface a spurious result, and still find the frame after it.
func TestDecodeSkipsCorruptedChecksumAndFindsNextPacket(t *testing.T) {
	a, err := BuildData([]byte("Hi"), UnitID(1))
	require.NoError(t, err)
	b, err := BuildData([]byte("second"), UnitID(2))
	require.NoError(t, err)

	// Bit 53 is preamble(32)+startflag(8)+unitid(4)+lenfield(8) = 52 bits
	// in, i.e. the second bit of payload byte 'H' (0x48), which is 1;
	// zeroing it flips it to 0 and breaks the checksum.
	zeroBit(a, 53)

	combined := append(append([]int16{}, a...), b...)
	results := Decode(combined, Options{ExpectedMode: ModeData})

	require.Len(t, results, 1, "the corrupted frame must be discarded, not reported")
	assert.Equal(t, []byte("second"), results[0].Payload)
	assert.Equal(t, UnitID(2), results[0].UnitID)
}

// TestDecodeSkipsBadEndFlag corrupts the end flag of an otherwise valid
// DATA frame (checksum still matches) and asserts Decode drops it.
func TestDecodeSkipsBadEndFlag(t *testing.T) {
	a, err := BuildData([]byte("Hi"), UnitID(1))
	require.NoError(t, err)

	// End flag starts at preamble(32)+startflag(8)+unitid(4)+lenfield(8)+
	// payload(16)+checksum(8) = 76 bits in; it is "11111111". Zeroing its
	// first two bits makes the first one read as 0 (see zeroBit), which
	// breaks the end-flag match without touching the checksum.
	zeroBit(a, 76)
	zeroBit(a, 77)

	res := DecodeFirst(a, Options{ExpectedMode: ModeData})
	assert.Equal(t, KindInvalid, res.Kind)
}

// TestDecodeSkipsTruncatedTrailingFrame appends only a truncated prefix of
// a second frame (cut right after its start flag) after a valid first
// frame. Decode must report the valid frame and silently drop the
// truncated one instead of erroring out or blocking the first result.
func TestDecodeSkipsTruncatedTrailingFrame(t *testing.T) {
	a, err := BuildData([]byte("first"), UnitID(1))
	require.NoError(t, err)
	b, err := BuildData([]byte("second"), UnitID(2))
	require.NoError(t, err)

	cfg := modem.Default()
	// Keep the leading silence guard plus 40 bits (32-bit preamble + 8-bit
	// start flag) of b, cutting it off before the unit id field.
	truncated := b[:cfg.SilenceGuardSamples()+40*cfg.SamplesPerBit()]

	combined := append(append([]int16{}, a...), truncated...)
	results := Decode(combined, Options{ExpectedMode: ModeData})

	require.Len(t, results, 1)
	assert.Equal(t, []byte("first"), results[0].Payload)
}
