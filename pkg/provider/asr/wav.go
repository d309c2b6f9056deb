package asr

import (
	"encoding/binary"
	"fmt"
)

// bitsPerSample is fixed at 16 for the signed little-endian PCM audio that
// both whisper.cpp and Vosk expect.
const bitsPerSample = 16

// WAVInfo describes the format of a decoded WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
}

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// DecodeWAV parses a RIFF/WAV container holding 16-bit PCM and returns the
// raw sample data plus its format. Non-PCM encodings and bit depths other
// than 16 are rejected; chunks other than "fmt " and "data" are skipped.
func DecodeWAV(wav []byte) ([]byte, WAVInfo, error) {
	var info WAVInfo

	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, info, fmt.Errorf("asr: not a RIFF/WAVE file")
	}

	var pcm []byte
	haveFmt := false

	off := 12
	for off+8 <= len(wav) {
		chunkID := string(wav[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if body+chunkSize > len(wav) {
			chunkSize = len(wav) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, info, fmt.Errorf("asr: fmt chunk too short (%d bytes)", chunkSize)
			}
			format := binary.LittleEndian.Uint16(wav[body : body+2])
			if format != 1 {
				return nil, info, fmt.Errorf("asr: unsupported WAV encoding %d (want PCM)", format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(wav[body+14 : body+16])
			if bits != bitsPerSample {
				return nil, info, fmt.Errorf("asr: unsupported bit depth %d (want %d)", bits, bitsPerSample)
			}
			haveFmt = true
		case "data":
			pcm = wav[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		off = body + chunkSize
		if chunkSize%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return nil, info, fmt.Errorf("asr: missing fmt chunk")
	}
	if pcm == nil {
		return nil, info, fmt.Errorf("asr: missing data chunk")
	}
	return pcm, info, nil
}

// PCMToFloat32Mono converts 16-bit signed little-endian PCM to normalised
// float32 samples in [-1, 1], downmixing multi-channel audio by averaging.
func PCMToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 0 {
		channels = 1
	}
	frames := len(pcm) / 2 / channels
	out := make([]float32, 0, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			i := (f*channels + c) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
			sum += float32(sample) / 32768.0
		}
		out = append(out, sum/float32(channels))
	}
	return out
}
