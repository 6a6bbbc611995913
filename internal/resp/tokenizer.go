package resp

import (
	"bytes"
	"strconv"
)

// Protocol limits.
const (
	// MaxLineLen limits a single CRLF-terminated line, header or simple value.
	MaxLineLen = 64 * 1024

	// MaxBulkLen limits the declared length of a bulk string (512MB, the
	// Redis default for proto-max-bulk-len).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the declared element count of an array.
	MaxArrayLen = 1024 * 1024

	// MaxNestingDepth limits how many arrays may be open at once.
	MaxNestingDepth = 512
)

var crlf = []byte("\r\n")

// TokenKind distinguishes header lines from bulk payloads.
type TokenKind uint8

const (
	// TokenLine is a CRLF-terminated line with the terminator stripped.
	// Its first byte is the type prefix.
	TokenLine TokenKind = iota
	// TokenPayload is the body of a bulk string.
	TokenPayload
)

// Token is one protocol token. Data aliases the tokenizer buffer and is only
// valid until the next Commit.
type Token struct {
	Kind TokenKind
	Data []byte
}

// Tokenizer splits a growing byte buffer into tokens.
//
// A bulk header "$n" switches the tokenizer into payload mode: the next token
// is exactly n bytes, regardless of any CR or LF inside it, followed by CRLF.
type Tokenizer struct {
	buf []byte
	pos int
	// payload is the pending bulk length, or -1 when a line comes next.
	payload int
	// midLine is set when pos was left inside a line that is being skipped.
	midLine bool
}

// NewTokenizer returns an empty tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{payload: -1}
}

// Feed appends newly received bytes.
func (t *Tokenizer) Feed(p []byte) {
	t.buf = append(t.buf, p...)
}

// Buffered returns the number of unconsumed bytes.
func (t *Tokenizer) Buffered() int {
	return len(t.buf) - t.pos
}

// Remainder returns the unconsumed bytes.
func (t *Tokenizer) Remainder() []byte {
	return t.buf[t.pos:]
}

// Next returns the next complete token, or ErrIncomplete when the buffer
// ends inside one. On ErrIncomplete nothing is consumed.
func (t *Tokenizer) Next() (Token, error) {
	if t.payload >= 0 {
		return t.nextPayload()
	}
	return t.nextLine()
}

func (t *Tokenizer) nextLine() (Token, error) {
	rest := t.buf[t.pos:]
	i := bytes.Index(rest, crlf)
	if i < 0 {
		if len(rest) > MaxLineLen {
			t.pos = len(t.buf)
			t.midLine = true
			return Token{}, limitErrorf("line exceeds %d bytes", MaxLineLen)
		}
		return Token{}, ErrIncomplete
	}

	line := rest[:i:i]
	t.pos += i + len(crlf)

	if i > MaxLineLen {
		return Token{}, limitErrorf("line exceeds %d bytes", MaxLineLen)
	}

	if len(line) > 0 && line[0] == byte(KindBulkString) {
		n, err := parseLength(line[1:])
		if err != nil {
			return Token{}, protocolErrorf("invalid bulk length")
		}
		if n > MaxBulkLen {
			return Token{}, limitErrorf("bulk length %d exceeds %d", n, MaxBulkLen)
		}
		if n >= 0 {
			t.payload = int(n)
		}
	}

	return Token{Kind: TokenLine, Data: line}, nil
}

func (t *Tokenizer) nextPayload() (Token, error) {
	n := t.payload
	rest := t.buf[t.pos:]
	if len(rest) < n+len(crlf) {
		return Token{}, ErrIncomplete
	}

	if rest[n] != '\r' || rest[n+1] != '\n' {
		// Skip the declared payload and whatever trails it on the same line.
		t.payload = -1
		if j := bytes.Index(rest[n:], crlf); j >= 0 {
			t.pos += n + j + len(crlf)
		} else {
			t.pos = len(t.buf)
			t.midLine = true
		}
		return Token{}, protocolErrorf("invalid bulk terminator")
	}

	data := rest[:n:n]
	t.pos += n + len(crlf)
	t.payload = -1
	return Token{Kind: TokenPayload, Data: data}, nil
}

// Commit discards the consumed bytes. Tokens returned earlier become invalid.
func (t *Tokenizer) Commit() {
	switch {
	case t.pos == 0:
	case t.pos == len(t.buf):
		t.buf = t.buf[:0]
		t.pos = 0
	case t.pos >= cap(t.buf)/2:
		n := copy(t.buf, t.buf[t.pos:])
		t.buf = t.buf[:n]
		t.pos = 0
	}
}

// reset drops any pending payload state after a protocol error.
func (t *Tokenizer) reset() {
	t.payload = -1
}

// resync skips input until the next line that starts with an array header
// and reports whether one is buffered. Lines cut off by the end of the buffer
// keep being skipped after the next Feed.
func (t *Tokenizer) resync() bool {
	for t.pos < len(t.buf) {
		if !t.midLine && t.buf[t.pos] == byte(KindArray) {
			return true
		}
		i := bytes.Index(t.buf[t.pos:], crlf)
		if i < 0 {
			// Keep a trailing CR: its LF may arrive with the next read.
			end := len(t.buf)
			if t.buf[end-1] == '\r' {
				end--
			}
			t.pos = end
			t.midLine = true
			return false
		}
		t.pos += i + len(crlf)
		t.midLine = false
	}
	return false
}

// parseLength parses a bulk or array length: a non-negative decimal or -1.
func parseLength(b []byte) (int64, error) {
	if len(b) == 2 && b[0] == '-' && b[1] == '1' {
		return -1, nil
	}
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(string(b), 10, 64)
}
