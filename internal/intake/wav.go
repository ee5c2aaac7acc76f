package intake

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	wavHeaderSize = 44
	bitsPerSample = 16
	numChannels   = 1
)

// writeWAV writes a mono 16-bit PCM RIFF/WAVE stream containing frames in order.
func writeWAV(w io.Writer, sampleRate int, frames [][]byte) (int64, error) {
	var dataSize int
	for _, f := range frames {
		dataSize += len(f)
	}

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	written, err := w.Write(header)
	total := int64(written)
	if err != nil {
		return total, fmt.Errorf("write wav header: %w", err)
	}

	for _, f := range frames {
		n, err := w.Write(f)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write wav data: %w", err)
		}
	}
	return total, nil
}
