package protocol

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/danmuck/assuan/internal/protocol/line"
)

var tokenRegexp = regexp.MustCompile(`\A\w+\z`)

// Serialize renders a message as one wire line (without the trailing
// newline) and enforces the line length limit.
func Serialize(m Message, limits line.Limits) ([]byte, error) {
	var out []byte
	switch v := m.(type) {
	case Command:
		if !tokenRegexp.MatchString(v.Name) {
			return nil, fmt.Errorf("%w: bad command name %q", ErrInvalidRequest, v.Name)
		}
		out = []byte(v.Name)
		if v.Parameters != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Parameters))...)
		}
	case OK:
		out = []byte("OK")
		if v.Message != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Message))...)
		}
	case Err:
		out = append([]byte("ERR "), strconv.Itoa(v.Code)...)
		if v.Description != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Description))...)
		}
	case Status:
		if !tokenRegexp.MatchString(v.Keyword) {
			return nil, fmt.Errorf("%w: bad status keyword %q", ErrInvalidResponse, v.Keyword)
		}
		out = append([]byte("S "), v.Keyword...)
		if v.Text != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Text))...)
		}
	case Comment:
		out = []byte("#")
		if v.Text != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Text))...)
		}
	case Data:
		out = append([]byte("D "), line.Escape(v.Chunk)...)
	case Inquire:
		if !tokenRegexp.MatchString(v.Keyword) {
			return nil, fmt.Errorf("%w: bad inquire keyword %q", ErrInvalidResponse, v.Keyword)
		}
		out = append([]byte("INQUIRE "), v.Keyword...)
		if v.Parameters != "" {
			out = append(append(out, ' '), line.Escape([]byte(v.Parameters))...)
		}
	case Cancel:
		out = []byte("CAN")
	case End:
		out = []byte("END")
	default:
		return nil, fmt.Errorf("%w: unsupported message %T", ErrInvalidRequest, m)
	}
	if err := limits.Check(out); err != nil {
		return nil, err
	}
	return out, nil
}
