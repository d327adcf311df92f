// Package segy decodes SEG-Y seismic files into dense inline/crossline/time
// volumes, detecting which trace header words carry the survey geometry.
package segy

import (
	"encoding/binary"
	"fmt"

	"geovis/internal/models"
)

// File layout constants.
const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	FileHeaderSize   = TextHeaderSize + BinaryHeaderSize
	TraceHeaderSize  = 240
	BytesPerSample   = 4

	// absolute file offsets of binary header fields
	offSampleInterval = 3216
	offSampleCount    = 3220
	offFormatCode     = 3224
)

// Sample format codes.
const (
	FormatIBM   int16 = 1
	FormatInt32 int16 = 2
	FormatIEEE  int16 = 5
)

// BinaryHeader holds the binary header fields the loader needs.
type BinaryHeader struct {
	// SampleInterval in microseconds
	SampleInterval int16

	// SamplesPerTrace is the number of samples in every trace
	SamplesPerTrace uint16

	// FormatCode selects the sample encoding
	FormatCode int16
}

// TraceSize returns the byte length of one trace record.
func (h BinaryHeader) TraceSize() int {
	return TraceHeaderSize + int(h.SamplesPerTrace)*BytesPerSample
}

// ReadBinaryHeader decodes the binary header from the start of a file.
func ReadBinaryHeader(data []byte) (BinaryHeader, error) {
	if len(data) < FileHeaderSize {
		return BinaryHeader{}, models.NewFormatError("", "file is %d bytes, shorter than the %d-byte header", len(data), FileHeaderSize)
	}
	return BinaryHeader{
		SampleInterval:  int16(binary.BigEndian.Uint16(data[offSampleInterval:])),
		SamplesPerTrace: binary.BigEndian.Uint16(data[offSampleCount:]),
		FormatCode:      int16(binary.BigEndian.Uint16(data[offFormatCode:])),
	}, nil
}

// putBinaryHeader writes h into a FileHeaderSize buffer.
func putBinaryHeader(buf []byte, h BinaryHeader) {
	binary.BigEndian.PutUint16(buf[offSampleInterval:], uint16(h.SampleInterval))
	binary.BigEndian.PutUint16(buf[offSampleCount:], h.SamplesPerTrace)
	binary.BigEndian.PutUint16(buf[offFormatCode:], uint16(h.FormatCode))
}

// headerWord reads a big-endian int32 at off within a trace header.
func headerWord(header []byte, off int) int32 {
	return int32(binary.BigEndian.Uint32(header[off : off+4]))
}

// FormatName describes a sample format code.
func FormatName(code int16) string {
	switch code {
	case FormatIBM:
		return "IBM float"
	case FormatInt32:
		return "int32"
	case FormatIEEE:
		return "IEEE float"
	}
	return fmt.Sprintf("unknown (%d)", code)
}
