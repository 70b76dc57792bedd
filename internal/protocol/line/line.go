package line

import (
	"errors"
	"fmt"
)

// DefaultMaxLineLength is the Assuan line limit: 1000 payload bytes before
// the [CR]LF terminator.
const DefaultMaxLineLength = 1000

// dataOverhead is the wire cost of one data line: "D " plus CR LF.
const dataOverhead = 4

var (
	ErrMalformedEncoding = errors.New("line: malformed percent encoding")
	ErrLineTooLong       = errors.New("line: line too long")
)

// Limits constrains the encoded length of a single wire line.
type Limits struct {
	MaxLineLength int
}

func DefaultLimits() Limits {
	return Limits{MaxLineLength: DefaultMaxLineLength}
}

// Check fails when the encoded line exceeds the limit. Over-limit lines are
// rejected outright; truncation would corrupt framing.
func (l Limits) Check(encoded []byte) error {
	if len(encoded) > l.MaxLineLength {
		return fmt.Errorf("%w: %d > %d", ErrLineTooLong, len(encoded), l.MaxLineLength)
	}
	return nil
}

const hexDigits = "0123456789ABCDEF"

func mustEscape(b byte, reserved []byte) bool {
	switch b {
	case '%', '\r', '\n', 0x00:
		return true
	}
	for _, r := range reserved {
		if b == r {
			return true
		}
	}
	return false
}

// Escape percent-encodes '%', CR, LF and NUL.
func Escape(payload []byte) []byte {
	return EscapeWith(payload, nil)
}

// EscapeWith percent-encodes the standard set plus any caller-reserved bytes.
func EscapeWith(payload, reserved []byte) []byte {
	out := make([]byte, 0, len(payload))
	for _, b := range payload {
		if mustEscape(b, reserved) {
			out = append(out, '%', hexDigits[b>>4], hexDigits[b&0x0f])
			continue
		}
		out = append(out, b)
	}
	return out
}

// Unescape reverses Escape. A '%' not followed by two hex digits fails with
// ErrMalformedEncoding; hex digits may be upper or lower case.
func Unescape(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		b := encoded[i]
		if b != '%' {
			out = append(out, b)
			continue
		}
		if i+2 >= len(encoded) {
			return nil, fmt.Errorf("%w: truncated escape at offset %d", ErrMalformedEncoding, i)
		}
		hi, ok1 := fromHexDigit(encoded[i+1])
		lo, ok2 := fromHexDigit(encoded[i+2])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrMalformedEncoding, encoded[i:i+3], i)
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, nil
}

func fromHexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// EscapedLen reports the encoded length of payload without building it.
func EscapedLen(payload []byte) int {
	n := 0
	for _, b := range payload {
		if mustEscape(b, nil) {
			n += 3
		} else {
			n++
		}
	}
	return n
}

// SplitData splits a raw payload into chunks whose escaped form each fits a
// "D " line within the limit. Chunks never end inside a %XX escape.
func SplitData(payload []byte, limits Limits) ([][]byte, error) {
	max := limits.MaxLineLength - dataOverhead
	if max < 3 {
		return nil, fmt.Errorf("%w: limit %d leaves no room for data", ErrLineTooLong, limits.MaxLineLength)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var chunks [][]byte
	start := 0
	budget := 0
	for i := 0; i < len(payload); i++ {
		cost := 1
		if mustEscape(payload[i], nil) {
			cost = 3
		}
		if budget+cost > max {
			chunks = append(chunks, payload[start:i])
			start = i
			budget = 0
		}
		budget += cost
	}
	chunks = append(chunks, payload[start:])
	return chunks, nil
}

// JoinData concatenates decoded chunks in order into one logical datum.
func JoinData(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
