package segy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// TraceRecord is one trace to be written.
type TraceRecord struct {
	Inline    int32
	Crossline int32
	Samples   []float32
}

// WriteOptions controls Write.
type WriteOptions struct {
	// SampleInterval in microseconds
	SampleInterval int16

	// FormatCode is FormatIBM, FormatInt32 or FormatIEEE
	FormatCode int16

	// InlineOffset and CrosslineOffset are the header positions of the keys;
	// zero selects the standard 188/192
	InlineOffset    int
	CrosslineOffset int

	// TextHeader is written into the 3200-byte text header, space padded
	TextHeader string
}

// Write emits a SEG-Y file. Every trace must have the same sample count.
// The trace sequence number (byte 0) is also written so the standard
// trace-number fallback has a key.
func Write(w io.Writer, traces []TraceRecord, opts WriteOptions) error {
	if len(traces) == 0 {
		return fmt.Errorf("no traces to write")
	}
	ns := len(traces[0].Samples)
	if ns == 0 || ns > math.MaxUint16 {
		return fmt.Errorf("invalid sample count %d", ns)
	}
	ilOff, xlOff := opts.InlineOffset, opts.CrosslineOffset
	if ilOff == 0 {
		ilOff = standardInline
	}
	if xlOff == 0 {
		xlOff = standardCrossline
	}
	if !validKeyOffset(ilOff) || !validKeyOffset(xlOff) {
		return fmt.Errorf("key offsets %d/%d outside the trace header", ilOff, xlOff)
	}
	format := opts.FormatCode
	if format == 0 {
		format = FormatIEEE
	}
	encode, err := sampleEncoder(format)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	header := make([]byte, FileHeaderSize)
	for i := 0; i < TextHeaderSize; i++ {
		header[i] = ' '
	}
	copy(header, opts.TextHeader)
	putBinaryHeader(header, BinaryHeader{
		SampleInterval:  opts.SampleInterval,
		SamplesPerTrace: uint16(ns),
		FormatCode:      format,
	})
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("error writing file header: %w", err)
	}

	rec := make([]byte, TraceHeaderSize+ns*BytesPerSample)
	for i, tr := range traces {
		if len(tr.Samples) != ns {
			return fmt.Errorf("trace %d has %d samples, expected %d", i, len(tr.Samples), ns)
		}
		clear(rec)
		binary.BigEndian.PutUint32(rec[0:], uint32(i+1))
		binary.BigEndian.PutUint32(rec[ilOff:], uint32(tr.Inline))
		binary.BigEndian.PutUint32(rec[xlOff:], uint32(tr.Crossline))
		for s, v := range tr.Samples {
			encode(rec[TraceHeaderSize+s*BytesPerSample:], v)
		}
		if _, err := bw.Write(rec); err != nil {
			return fmt.Errorf("error writing trace %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func sampleEncoder(code int16) (func([]byte, float32), error) {
	switch code {
	case FormatIBM:
		return func(b []byte, v float32) {
			w := Float32ToIBM(v)
			copy(b, w[:])
		}, nil
	case FormatInt32:
		return func(b []byte, v float32) {
			binary.BigEndian.PutUint32(b, uint32(int32(math.Round(float64(v)))))
		}, nil
	case FormatIEEE:
		return func(b []byte, v float32) {
			binary.BigEndian.PutUint32(b, math.Float32bits(v))
		}, nil
	}
	return nil, fmt.Errorf("cannot write sample format %d", code)
}
