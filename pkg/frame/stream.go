package frame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrameSize rejects corrupt length prefixes before allocating.
const maxFrameSize = 1 << 30

// Writer appends length-delimited frames to a stream, the same framing
// as protobuf's writeDelimitedTo.
type Writer struct {
	w     *bufio.Writer
	buf   []byte
	count int
}

// NewWriter returns a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes and appends one frame.
func (fw *Writer) Write(f *Frame) error {
	body, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	fw.buf = protowire.AppendVarint(fw.buf[:0], uint64(len(body)))
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := fw.w.Write(body); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", f.Index, err)
	}
	fw.count++
	return nil
}

// Count returns the number of frames written so far.
func (fw *Writer) Count() int { return fw.count }

// Flush writes buffered data to the underlying writer.
func (fw *Writer) Flush() error {
	return fw.w.Flush()
}

// Reader reads frames written by Writer.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read returns the next frame, or io.EOF at a clean end of stream.
func (fr *Reader) Read() (*Frame, error) {
	size, err := binary.ReadUvarint(fr.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: frame header: %v", ErrMalformed, err)
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes", ErrMalformed, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return nil, fmt.Errorf("%w: truncated frame: %v", ErrMalformed, err)
	}
	f := new(Frame)
	if err := f.UnmarshalBinary(body); err != nil {
		return nil, err
	}
	return f, nil
}
