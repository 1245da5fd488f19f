// Package packet assembles and parses the three wire packet variants
// (DATA, AUTH, ENCRYPTED), dispatching to pkg/crypto for authenticated
// encryption and to pkg/modem/pkg/framesync for the acoustic transport.
//
// UnitID follows the teacher's MACHeader idiom (pkg/layers/mac.go): a
// narrow wire field gets its own named type with a Validate method, rather
// than being passed around as a bare int.
package packet

import (
	"errors"
	"fmt"

	"acousticlink/pkg/bits"
	"acousticlink/pkg/checksum"
	"acousticlink/pkg/crypto"
	"acousticlink/pkg/framesync"
	"acousticlink/pkg/modem"
)

// Wire constants (spec.md §6, must be reproduced verbatim).
const (
	preambleBits = "10101010" + "10101010" + "10101010" + "10101010" // 32 bits
	endFlag      = "11111111"
)

var (
	ErrBadChecksum     = errors.New("packet: checksum mismatch")
	ErrBadEndFlag      = errors.New("packet: end flag mismatch")
	ErrTruncatedFrame  = errors.New("packet: truncated frame")
	ErrPayloadTooLarge = errors.New("packet: payload too large")
)

// UnitID is the wire format's 4-bit opaque routing field, carried verbatim
// end to end.
type UnitID uint8

// Validate reports an error if u does not fit in 4 bits.
func (u UnitID) Validate() error {
	if u&0xF != u {
		return fmt.Errorf("packet: invalid unit id %d, must fit in 4 bits", u)
	}
	return nil
}

// Mode disambiguates the DATA and AUTH variants, which share a start flag.
// spec.md §4.F/§9: the wire does not distinguish them, so a decode-time
// hint is required.
type Mode int

const (
	ModeData Mode = iota
	ModeAuth
)

// Options configures Decode.
type Options struct {
	ExpectedMode   Mode   // DATA or AUTH, used for the DATA/AUTH start flag
	Password       string // for ENCRYPTED
	ExpectedSecret string // for AUTH
}

// Kind tags the variant of a decoded Result.
type Kind int

const (
	KindInvalid Kind = iota
	KindDataOk
	KindAuthOk
	KindEncryptedOk
	KindEncryptedLocked
	KindEncryptedFailed
)

// Result is the tagged decode outcome for one frame.
type Result struct {
	Kind    Kind
	UnitID  UnitID
	Payload []byte // KindDataOk, KindEncryptedOk
	Granted bool   // KindAuthOk
}

func flagBits(s string) []bool {
	out := make([]bool, len(s))
	for i, c := range s {
		out[i] = c == '1'
	}
	return out
}

// BuildData assembles a DATA packet for payload and synthesizes it to PCM
// samples. payload must be at most 255 bytes.
func BuildData(payload []byte, unitID UnitID) ([]int16, error) {
	if err := unitID.Validate(); err != nil {
		return nil, err
	}
	if len(payload) > 255 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	frame := make([]bool, 0, 32+8+4+8+len(payload)*8+8+8)
	frame = append(frame, flagBits(preambleBits)...)
	frame = append(frame, flagBits(framesync.StartFlagData)...)
	frame = append(frame, bits.FromUint(uint64(unitID), 4)...)
	frame = append(frame, bits.FromUint(uint64(len(payload)), 8)...)
	frame = append(frame, bits.BitsFromBytes(payload)...)
	frame = append(frame, bits.FromUint(uint64(checksum.Sum(payload)), 8)...)
	frame = append(frame, flagBits(endFlag)...)

	return modem.Modulate(frame, modem.Default()), nil
}

// BuildAuth assembles an AUTH packet carrying the proof-of-knowledge token
// for secret, and synthesizes it to PCM samples.
func BuildAuth(secret string, unitID UnitID) ([]int16, error) {
	if err := unitID.Validate(); err != nil {
		return nil, err
	}
	token, err := crypto.AuthToken(secret)
	if err != nil {
		return nil, err
	}

	frame := make([]bool, 0, 32+8+4+32+8+8)
	frame = append(frame, flagBits(preambleBits)...)
	frame = append(frame, flagBits(framesync.StartFlagData)...)
	frame = append(frame, bits.FromUint(uint64(unitID), 4)...)
	frame = append(frame, bits.BitsFromBytes(token)...)
	frame = append(frame, bits.FromUint(uint64(checksum.Sum(token)), 8)...)
	frame = append(frame, flagBits(endFlag)...)

	return modem.Modulate(frame, modem.Default()), nil
}

// BuildEncrypted encrypts payload under password, assembles an ENCRYPTED
// packet carrying the resulting cipher-blob, and synthesizes it to PCM
// samples. Fails with ErrPayloadTooLarge if the blob exceeds 255 bytes
// (plaintext longer than 211 bytes).
func BuildEncrypted(payload []byte, password string, unitID UnitID) ([]int16, error) {
	if err := unitID.Validate(); err != nil {
		return nil, err
	}
	blob, err := crypto.Encrypt(password, payload)
	if err != nil {
		return nil, err
	}
	if len(blob) > 255 {
		return nil, fmt.Errorf("%w: cipher-blob is %d bytes", ErrPayloadTooLarge, len(blob))
	}

	frame := make([]bool, 0, 32+8+4+8+len(blob)*8+8+8)
	frame = append(frame, flagBits(preambleBits)...)
	frame = append(frame, flagBits(framesync.StartFlagEncrypted)...)
	frame = append(frame, bits.FromUint(uint64(unitID), 4)...)
	frame = append(frame, bits.FromUint(uint64(len(blob)), 8)...)
	frame = append(frame, bits.BitsFromBytes(blob)...)
	frame = append(frame, bits.FromUint(uint64(checksum.Sum(blob)), 8)...)
	frame = append(frame, flagBits(endFlag)...)

	return modem.Modulate(frame, modem.Default()), nil
}

// Decode demodulates samples and returns every valid packet found, in the
// order their start flags appear (spec.md §9, Open Question (b)).
func Decode(samples []int16, opts Options) []Result {
	stream := modem.Demodulate(samples, modem.Default())

	var results []Result
	framesync.Scan(stream, func(c framesync.Candidate) int {
		n, res, err := parseFrame(c, opts)
		if err != nil {
			return 0
		}
		results = append(results, res)
		return n
	})
	return results
}

// DecodeFirst is a convenience wrapper over Decode for callers that expect
// at most one packet per buffer. It returns a KindInvalid Result if Decode
// found nothing.
func DecodeFirst(samples []int16, opts Options) Result {
	results := Decode(samples, opts)
	if len(results) == 0 {
		return Result{Kind: KindInvalid}
	}
	return results[0]
}

// parseFrame parses one candidate frame in place, after its start flag.
// n is the number of bits consumed counting from c.Index (so the caller
// can resume scanning just past this frame); n is 0 on any parse error,
// per spec.md §4.F ("discard the frame, resume the scan at bit i+1").
func parseFrame(c framesync.Candidate, opts Options) (n int, res Result, err error) {
	switch c.Variant {
	case framesync.VariantEncrypted:
		return parseEncrypted(c.Rest, opts)
	default:
		if opts.ExpectedMode == ModeAuth {
			return parseAuth(c.Rest, opts)
		}
		return parseData(c.Rest)
	}
}

// take returns the next n bits starting at pos, or ErrTruncatedFrame if
// fewer than n remain.
func take(stream []bool, pos, n int) ([]bool, error) {
	if pos+n > len(stream) {
		return nil, ErrTruncatedFrame
	}
	return stream[pos : pos+n], nil
}

func checkEnd(stream []bool, pos int) error {
	flag, err := take(stream, pos, framesync.FlagLen)
	if err != nil {
		return err
	}
	if bits.Uint(flag) != bits.Uint(flagBits(endFlag)) {
		return ErrBadEndFlag
	}
	return nil
}

func parseData(stream []bool) (int, Result, error) {
	pos := framesync.FlagLen // skip start flag

	unitBits, err := take(stream, pos, 4)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 4

	lenBits, err := take(stream, pos, 8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 8
	length := int(bits.Uint(lenBits))

	payloadBits, err := take(stream, pos, length*8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += length * 8
	payload, _ := bits.BytesFromBits(payloadBits) // length*8 is always byte-aligned

	checksumBits, err := take(stream, pos, 8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 8
	if !checksum.Verify(payload, byte(bits.Uint(checksumBits))) {
		return 0, Result{}, ErrBadChecksum
	}

	if err := checkEnd(stream, pos); err != nil {
		return 0, Result{}, err
	}
	pos += framesync.FlagLen

	return pos, Result{
		Kind:    KindDataOk,
		UnitID:  UnitID(bits.Uint(unitBits)),
		Payload: payload,
	}, nil
}

func parseAuth(stream []bool, opts Options) (int, Result, error) {
	pos := framesync.FlagLen

	unitBits, err := take(stream, pos, 4)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 4

	tokenBits, err := take(stream, pos, 32)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 32
	token, _ := bits.BytesFromBits(tokenBits)

	checksumBits, err := take(stream, pos, 8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 8
	if !checksum.Verify(token, byte(bits.Uint(checksumBits))) {
		return 0, Result{}, ErrBadChecksum
	}

	if err := checkEnd(stream, pos); err != nil {
		return 0, Result{}, err
	}
	pos += framesync.FlagLen

	return pos, Result{
		Kind:    KindAuthOk,
		UnitID:  UnitID(bits.Uint(unitBits)),
		Granted: crypto.AuthVerify(token, opts.ExpectedSecret),
	}, nil
}

func parseEncrypted(stream []bool, opts Options) (int, Result, error) {
	pos := framesync.FlagLen

	unitBits, err := take(stream, pos, 4)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 4

	lenBits, err := take(stream, pos, 8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 8
	length := int(bits.Uint(lenBits))
	if length < crypto.MinBlobSize {
		return 0, Result{}, fmt.Errorf("packet: cipher-blob length %d below minimum %d", length, crypto.MinBlobSize)
	}

	blobBits, err := take(stream, pos, length*8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += length * 8
	blob, _ := bits.BytesFromBits(blobBits)

	checksumBits, err := take(stream, pos, 8)
	if err != nil {
		return 0, Result{}, err
	}
	pos += 8
	if !checksum.Verify(blob, byte(bits.Uint(checksumBits))) {
		return 0, Result{}, ErrBadChecksum
	}

	if err := checkEnd(stream, pos); err != nil {
		return 0, Result{}, err
	}
	pos += framesync.FlagLen

	unitID := UnitID(bits.Uint(unitBits))

	if opts.Password == "" {
		return pos, Result{Kind: KindEncryptedLocked, UnitID: unitID}, nil
	}
	plaintext, err := crypto.Decrypt(opts.Password, blob)
	if err != nil {
		return pos, Result{Kind: KindEncryptedFailed, UnitID: unitID}, nil
	}
	return pos, Result{Kind: KindEncryptedOk, UnitID: unitID, Payload: plaintext}, nil
}
