// Package wav encodes and decodes the mono, 16-bit PCM RIFF/WAVE files the
// cmd/ binaries read and write. It is an external collaborator to the
// core: pkg/packet and pkg/modem never import it.
//
// Grounded on skypro1111-tlv-audio-service's internal/audio/wav.go — same
// header struct, same field validation order.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// header is the 44-byte canonical PCM WAV header.
type header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

const (
	numChannels   = 1
	bitsPerSample = 16
	headerSize    = 44
)

// Encode writes samples as a mono 16-bit PCM WAV file at sampleRate.
func Encode(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("wav: write header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("wav: write samples: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a mono 16-bit PCM WAV file, returning its samples and
// sample rate.
func Decode(data []byte) (samples []int16, sampleRate int, err error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("wav: data too short: need at least %d bytes, got %d", headerSize, len(data))
	}

	r := bytes.NewReader(data)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("wav: read header: %w", err)
	}

	switch {
	case string(h.ChunkID[:]) != "RIFF":
		return nil, 0, fmt.Errorf("wav: missing RIFF header")
	case string(h.Format[:]) != "WAVE":
		return nil, 0, fmt.Errorf("wav: missing WAVE format")
	case string(h.Subchunk1ID[:]) != "fmt ":
		return nil, 0, fmt.Errorf("wav: missing fmt chunk")
	case string(h.Subchunk2ID[:]) != "data":
		return nil, 0, fmt.Errorf("wav: missing data chunk")
	case h.AudioFormat != 1:
		return nil, 0, fmt.Errorf("wav: unsupported audio format %d, only PCM is supported", h.AudioFormat)
	case h.BitsPerSample != bitsPerSample:
		return nil, 0, fmt.Errorf("wav: unsupported bit depth %d, only 16-bit is supported", h.BitsPerSample)
	case h.NumChannels != numChannels:
		return nil, 0, fmt.Errorf("wav: unsupported channel count %d, only mono is supported", h.NumChannels)
	}

	n := int(h.Subchunk2Size) / 2
	out := make([]int16, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, 0, fmt.Errorf("wav: read samples: %w", err)
	}
	return out, int(h.SampleRate), nil
}
