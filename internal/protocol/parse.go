package protocol

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/danmuck/assuan/internal/protocol/line"
)

var requestRegexp = regexp.MustCompile(`\A(\w+)( *)(.*)\z`)

// ParseRequest decodes one client-to-server line: a command, or a D/END/CAN
// inquire reply.
func ParseRequest(raw []byte) (Message, error) {
	switch {
	case len(raw) == 0:
		return nil, fmt.Errorf("%w: empty line", ErrInvalidRequest)
	case bytes.Equal(raw, []byte("END")):
		return End{}, nil
	case bytes.Equal(raw, []byte("CAN")):
		return Cancel{}, nil
	case bytes.Equal(raw, []byte("D")):
		return Data{Chunk: []byte{}}, nil
	case bytes.HasPrefix(raw, []byte("D ")):
		chunk, err := line.Unescape(raw[2:])
		if err != nil {
			return nil, err
		}
		return Data{Chunk: chunk}, nil
	}
	match := requestRegexp.FindSubmatch(raw)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRequest, raw)
	}
	name, sep, rest := match[1], match[2], match[3]
	if len(rest) > 0 && len(sep) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRequest, raw)
	}
	params, err := line.Unescape(rest)
	if err != nil {
		return nil, err
	}
	return Command{Name: string(name), Parameters: string(params)}, nil
}

// ParseResponse decodes one server-to-client line by its prefix.
func ParseResponse(raw []byte) (Message, error) {
	switch {
	case len(raw) == 0:
		return nil, fmt.Errorf("%w: empty line", ErrInvalidResponse)
	case bytes.Equal(raw, []byte("D")):
		return Data{Chunk: []byte{}}, nil
	case bytes.HasPrefix(raw, []byte("D ")):
		chunk, err := line.Unescape(raw[2:])
		if err != nil {
			return nil, err
		}
		return Data{Chunk: chunk}, nil
	case bytes.Equal(raw, []byte("#")):
		return Comment{}, nil
	case bytes.HasPrefix(raw, []byte("# ")):
		text, err := line.Unescape(raw[2:])
		if err != nil {
			return nil, err
		}
		return Comment{Text: string(text)}, nil
	case bytes.Equal(raw, []byte("OK")):
		return OK{}, nil
	case bytes.HasPrefix(raw, []byte("OK ")):
		text, err := line.Unescape(raw[3:])
		if err != nil {
			return nil, err
		}
		return OK{Message: string(text)}, nil
	case bytes.HasPrefix(raw, []byte("ERR ")):
		return parseErr(raw[4:])
	case bytes.HasPrefix(raw, []byte("S ")):
		keyword, text, err := splitKeyword(raw[2:])
		if err != nil {
			return nil, err
		}
		return Status{Keyword: keyword, Text: text}, nil
	case bytes.Equal(raw, []byte("INQUIRE")):
		return nil, fmt.Errorf("%w: inquire without keyword", ErrInvalidResponse)
	case bytes.HasPrefix(raw, []byte("INQUIRE ")):
		keyword, params, err := splitKeyword(raw[8:])
		if err != nil {
			return nil, err
		}
		return Inquire{Keyword: keyword, Parameters: params}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidResponse, raw)
}

func parseErr(rest []byte) (Message, error) {
	fields := bytes.SplitN(rest, []byte(" "), 2)
	code, err := strconv.Atoi(string(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad error code %q", ErrInvalidResponse, fields[0])
	}
	var description string
	if len(fields) == 2 {
		text, err := line.Unescape(fields[1])
		if err != nil {
			return nil, err
		}
		description = string(text)
	}
	return Err{Code: code, Description: description}, nil
}

func splitKeyword(rest []byte) (string, string, error) {
	match := requestRegexp.FindSubmatch(rest)
	if match == nil {
		return "", "", fmt.Errorf("%w: bad keyword in %q", ErrInvalidResponse, rest)
	}
	keyword, sep, tail := match[1], match[2], match[3]
	if len(tail) > 0 && len(sep) == 0 {
		return "", "", fmt.Errorf("%w: bad keyword in %q", ErrInvalidResponse, rest)
	}
	text, err := line.Unescape(tail)
	if err != nil {
		return "", "", err
	}
	return string(keyword), string(text), nil
}
