package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the declared payload length of a single frame.
const MaxFrameSize = 16 << 20

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrTruncated is returned when the stream ends before the declared
	// frame length is satisfied.
	ErrTruncated = errors.New("truncated frame")
)

// WriteFrame writes a single length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}

	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}

	return nil
}

// ReadFrame reads a single length-prefixed frame from r. It keeps reading
// until the declared length is satisfied and returns ErrTruncated if the
// stream ends first. Returns io.EOF only when the reader is exhausted
// before any header byte arrives.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte

	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(hdr[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: got fewer than %d payload bytes", ErrTruncated, length)
			}
			return nil, err
		}
	}

	return payload, nil
}
