package mixdown

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavHeaderSize    = 44
	wavChannels      = 2
	wavBitsPerSample = 16
)

// quantize maps a [-1, 1] float sample onto the asymmetric int16 range:
// exactly -1 hits -32768, everything in (-1, 1] scales by 32767. Out-of-range
// input clamps first.
func quantize(sample float64) int16 {
	if sample <= -1 {
		return math.MinInt16
	}
	if sample > 1 {
		sample = 1
	}
	return int16(math.Round(sample * math.MaxInt16))
}

// EncodeWAV renders the buffer as a canonical uncompressed PCM wave
// container: 44-byte RIFF/WAVE/fmt/data header followed by interleaved
// 16-bit signed little-endian samples. Deterministic for identical input.
func EncodeWAV(buf *Buffer) []byte {
	dataSize := len(buf.Frames) * wavChannels * (wavBitsPerSample / 8)
	byteRate := buf.SampleRate * wavChannels * (wavBitsPerSample / 8)
	blockAlign := wavChannels * (wavBitsPerSample / 8)

	out := make([]byte, wavHeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], wavChannels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], wavBitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	at := wavHeaderSize
	for _, frame := range buf.Frames {
		binary.LittleEndian.PutUint16(out[at:at+2], uint16(quantize(frame[0])))
		binary.LittleEndian.PutUint16(out[at+2:at+4], uint16(quantize(frame[1])))
		at += 4
	}

	return out
}

// DecodeWAV parses a 16-bit stereo or mono PCM wave file back into a buffer.
// Mono input is duplicated onto both channels.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	format := binary.LittleEndian.Uint16(data[20:22])
	if format != 1 {
		return nil, fmt.Errorf("unsupported wav format %d, want PCM", format)
	}
	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	bits := int(binary.LittleEndian.Uint16(data[34:36]))
	if bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, want 16", bits)
	}

	dataSize := int(binary.LittleEndian.Uint32(data[40:44]))
	if wavHeaderSize+dataSize > len(data) {
		dataSize = len(data) - wavHeaderSize
	}

	bytesPerFrame := channels * 2
	frameCount := dataSize / bytesPerFrame
	buf := &Buffer{
		SampleRate: sampleRate,
		Frames:     make([][2]float64, frameCount),
	}

	at := wavHeaderSize
	for f := 0; f < frameCount; f++ {
		left := float64(int16(binary.LittleEndian.Uint16(data[at:at+2]))) / math.MaxInt16
		right := left
		if channels == 2 {
			right = float64(int16(binary.LittleEndian.Uint16(data[at+2:at+4]))) / math.MaxInt16
		}
		buf.Frames[f] = [2]float64{left, right}
		at += bytesPerFrame
	}

	return buf, nil
}

// DataURL wraps an encoded audio payload as a base64 data URI, the transport
// shape the upload endpoint accepts.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
