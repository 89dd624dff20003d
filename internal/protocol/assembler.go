package protocol

import (
	"encoding/binary"

	"github.com/udisondev/tibiarelay/internal/constants"
)

// Assembler cuts a TCP byte stream into physical frames. Reads may split a
// frame or carry several; the incomplete tail is kept until more bytes arrive.
//
// Invariant: partial is non-empty only while remaining > 0, or while fewer
// than two header bytes have been seen.
type Assembler struct {
	partial   []byte
	remaining int
}

// Feed appends one physical read and returns every frame it completed, in
// order. Returned frames do not alias chunk.
func (a *Assembler) Feed(chunk []byte) ([][]byte, error) {
	var frames [][]byte
	for len(chunk) > 0 {
		// Waiting for the rest of a known-size frame.
		if a.remaining > 0 {
			n := min(a.remaining, len(chunk))
			a.partial = append(a.partial, chunk[:n]...)
			a.remaining -= n
			chunk = chunk[n:]
			if a.remaining == 0 {
				frames = append(frames, a.partial)
				a.partial = nil
			}
			continue
		}

		// Header, possibly split across reads.
		need := constants.FrameHeaderSize - len(a.partial)
		n := min(need, len(chunk))
		a.partial = append(a.partial, chunk[:n]...)
		chunk = chunk[n:]
		if len(a.partial) < constants.FrameHeaderSize {
			break
		}

		size := int(binary.LittleEndian.Uint16(a.partial))
		if size == 0 {
			a.Reset()
			return frames, ErrEmptyFrame
		}
		buf := make([]byte, constants.FrameHeaderSize, constants.FrameHeaderSize+size)
		copy(buf, a.partial)
		a.partial = buf
		a.remaining = size
	}
	return frames, nil
}

// Pending reports whether a frame is partially buffered.
func (a *Assembler) Pending() bool {
	return len(a.partial) > 0
}

// Reset drops any partially buffered frame.
func (a *Assembler) Reset() {
	a.partial = nil
	a.remaining = 0
}
