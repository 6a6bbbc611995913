package output

import (
	"fmt"
	"io"

	"github.com/yndnr/respkv/internal/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter writes one reply to w.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// ParseFormat validates a format name. An empty name selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Reply is the structured form of a server reply used by json and yaml.
type Reply struct {
	Type  string  `json:"type" yaml:"type"`
	Value any     `json:"value,omitempty" yaml:"value,omitempty"`
	Error string  `json:"error,omitempty" yaml:"error,omitempty"`
	Items []Reply `json:"items,omitempty" yaml:"items,omitempty"`
	Nil   bool    `json:"nil,omitempty" yaml:"nil,omitempty"`
}

// ToReply converts a protocol value to its structured form.
func ToReply(v resp.Value) Reply {
	r := Reply{Type: v.Kind.String()}
	switch v.Kind {
	case resp.KindSimpleString:
		r.Value = v.Str
	case resp.KindError:
		r.Error = v.Str
	case resp.KindInteger:
		r.Value = v.Int
	case resp.KindBulkString:
		if v.Null {
			r.Nil = true
		} else {
			r.Value = string(v.Bulk)
		}
	case resp.KindArray:
		if v.Null {
			r.Nil = true
			break
		}
		r.Items = make([]Reply, len(v.Array))
		for i, item := range v.Array {
			r.Items[i] = ToReply(item)
		}
	}
	return r
}
