package resp

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

// Decoder turns buffered bytes into values, one frame at a time.
//
// Decode is resumable: tokens are consumed as soon as they are complete and
// the arrays still being filled are kept between calls, so a frame that
// arrives in many reads is scanned once.
type Decoder struct {
	tok *Tokenizer
	// open holds the arrays of the current frame that still need elements,
	// innermost last.
	open []*pendingArray
	// resyncing is set after a protocol error until the next array header.
	resyncing bool
}

type pendingArray struct {
	elems []Value
	want  int
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{tok: NewTokenizer()}
}

// Feed appends newly received bytes.
func (d *Decoder) Feed(p []byte) {
	d.tok.Feed(p)
}

// Buffered returns the number of buffered bytes not yet consumed.
func (d *Decoder) Buffered() int {
	return d.tok.Buffered()
}

// InFrame reports whether part of a frame has been consumed or buffered.
func (d *Decoder) InFrame() bool {
	return len(d.open) > 0 || d.tok.payload >= 0 || d.tok.Buffered() > 0
}

// Decode returns the next complete value.
//
// It returns ErrIncomplete when more bytes are needed. On malformed input it
// returns a *ProtocolError, abandons the frame and skips ahead to the next
// line that starts with an array header, so the rest of the bad frame is
// never read as a request of its own.
func (d *Decoder) Decode() (Value, error) {
	if d.resyncing {
		if !d.tok.resync() {
			d.tok.Commit()
			return Value{}, ErrIncomplete
		}
		d.resyncing = false
	}

	for {
		v, done, err := d.step()
		if errors.Is(err, ErrIncomplete) {
			d.tok.Commit()
			return Value{}, ErrIncomplete
		}
		if err != nil {
			d.abandon()
			return Value{}, err
		}
		if !done {
			continue
		}

		for {
			if len(d.open) == 0 {
				d.tok.Commit()
				return v, nil
			}
			top := d.open[len(d.open)-1]
			top.elems = append(top.elems, v)
			if len(top.elems) < top.want {
				break
			}
			d.open = d.open[:len(d.open)-1]
			v = Array(top.elems...)
		}
	}
}

func (d *Decoder) abandon() {
	clear(d.open)
	d.open = d.open[:0]
	d.tok.reset()
	d.tok.Commit()
	d.resyncing = true
}

// step consumes one token. done reports whether it completed a value; a bulk
// header or a non-empty array header leaves the value open.
func (d *Decoder) step() (v Value, done bool, err error) {
	tok, err := d.tok.Next()
	if err != nil {
		return Value{}, false, err
	}
	if tok.Kind == TokenPayload {
		return BulkBytes(bytes.Clone(tok.Data)), true, nil
	}
	if len(tok.Data) == 0 {
		return Value{}, false, protocolErrorf("empty frame")
	}

	line := tok.Data
	body := line[1:]

	switch Kind(line[0]) {
	case KindSimpleString:
		return SimpleString(string(body)), true, nil
	case KindError:
		return ErrorString(string(body)), true, nil
	case KindInteger:
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			return Value{}, false, protocolErrorf("invalid integer %q", body)
		}
		return Integer(n), true, nil
	case KindBulkString:
		// The tokenizer has already validated the header and, unless it is
		// null, expects the payload next.
		if n, _ := parseLength(body); n < 0 {
			return NullBulk(), true, nil
		}
		return Value{}, false, nil
	case KindArray:
		return d.openArray(body)
	default:
		return Value{}, false, protocolErrorf("unknown type prefix %q", line[0])
	}
}

func (d *Decoder) openArray(header []byte) (Value, bool, error) {
	n, err := parseLength(header)
	if err != nil {
		return Value{}, false, protocolErrorf("invalid multibulk length")
	}
	if n < 0 {
		return NullArray(), true, nil
	}
	if n > MaxArrayLen {
		return Value{}, false, limitErrorf("array length %d exceeds %d", n, MaxArrayLen)
	}
	if n == 0 {
		return Array(), true, nil
	}
	if len(d.open) >= MaxNestingDepth {
		return Value{}, false, limitErrorf("nesting depth exceeds %d", MaxNestingDepth)
	}

	d.open = append(d.open, &pendingArray{
		elems: make([]Value, 0, min(int(n), 64)),
		want:  int(n),
	})
	return Value{}, false, nil
}

// DefaultReadSize is the chunk size Reader uses for each read.
const DefaultReadSize = 4096

// Reader decodes values from a byte stream.
type Reader struct {
	rd  io.Reader
	dec *Decoder
	buf []byte
	err error
}

// NewReader returns a Reader reading chunks of DefaultReadSize bytes.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultReadSize)
}

// NewReaderSize returns a Reader reading chunks of size bytes.
func NewReaderSize(r io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultReadSize
	}
	return &Reader{
		rd:  r,
		dec: NewDecoder(),
		buf: make([]byte, size),
	}
}

// ReadValue returns the next value from the stream.
//
// Frames already buffered are returned before any read error. A *ProtocolError
// leaves the Reader usable. io.EOF is returned only at a frame boundary;
// EOF in the middle of a frame is io.ErrUnexpectedEOF.
func (r *Reader) ReadValue() (Value, error) {
	for {
		v, err := r.dec.Decode()
		if !errors.Is(err, ErrIncomplete) {
			return v, err
		}

		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.dec.InFrame() {
				return Value{}, io.ErrUnexpectedEOF
			}
			return Value{}, r.err
		}

		n, err := r.rd.Read(r.buf)
		if n > 0 {
			r.dec.Feed(r.buf[:n])
		}
		if err != nil {
			r.err = err
		}
	}
}
