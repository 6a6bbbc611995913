package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/resp"
)

// TextFormatter formats replies the way redis-cli prints them.
type TextFormatter struct {
	// Raw prints bulk strings unquoted and omits type markers.
	Raw bool
}

// Format writes v followed by a newline.
func (f *TextFormatter) Format(w io.Writer, v resp.Value) error {
	var sb strings.Builder
	f.render(&sb, v, "")
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TextFormatter) render(sb *strings.Builder, v resp.Value, indent string) {
	switch v.Kind {
	case resp.KindSimpleString:
		sb.WriteString(v.Str)
	case resp.KindError:
		if !f.Raw {
			sb.WriteString("(error) ")
		}
		sb.WriteString(v.Str)
	case resp.KindInteger:
		if !f.Raw {
			sb.WriteString("(integer) ")
		}
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case resp.KindBulkString:
		switch {
		case v.Null && f.Raw:
		case v.Null:
			sb.WriteString("(nil)")
		case f.Raw:
			sb.Write(v.Bulk)
		default:
			sb.WriteString(strconv.Quote(string(v.Bulk)))
		}
	case resp.KindArray:
		f.renderArray(sb, v, indent)
	default:
		fmt.Fprintf(sb, "(unknown %q)", byte(v.Kind))
	}
}

func (f *TextFormatter) renderArray(sb *strings.Builder, v resp.Value, indent string) {
	if v.Null {
		if !f.Raw {
			sb.WriteString("(nil)")
		}
		return
	}
	if len(v.Array) == 0 {
		if !f.Raw {
			sb.WriteString("(empty array)")
		}
		return
	}

	width := len(strconv.Itoa(len(v.Array)))
	for i, item := range v.Array {
		if i > 0 {
			sb.WriteByte('\n')
			sb.WriteString(indent)
		}
		if f.Raw {
			f.render(sb, item, indent)
			continue
		}
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		sb.WriteString(prefix)
		f.render(sb, item, indent+strings.Repeat(" ", len(prefix)))
	}
}
