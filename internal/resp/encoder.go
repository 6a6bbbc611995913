package resp

import (
	"bufio"
	"strconv"
	"strings"
)

// lineSanitizer keeps simple strings and errors on a single line.
var lineSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

// AppendValue appends the wire encoding of v to dst.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString, KindError:
		dst = append(dst, byte(v.Kind))
		dst = append(dst, lineSanitizer.Replace(v.Str)...)
		return append(dst, crlf...)
	case KindInteger:
		dst = append(dst, byte(KindInteger))
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)
	case KindBulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, byte(KindBulkString))
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Bulk...)
		return append(dst, crlf...)
	case KindArray:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, byte(KindArray))
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, elem := range v.Array {
			dst = AppendValue(dst, elem)
		}
		return dst
	default:
		// Unknown kinds never reach the wire as anything but an error.
		return AppendValue(dst, ErrorString("ERR unencodable value"))
	}
}

// Encode returns the wire encoding of v.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// WriteValue writes the wire encoding of v to w. The caller flushes.
func WriteValue(w *bufio.Writer, v Value) error {
	_, err := w.Write(AppendValue(w.AvailableBuffer(), v))
	return err
}
