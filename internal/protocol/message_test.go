package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/assuan/internal/protocol/line"
)

func TestRequestSerializeParseIdempotence(t *testing.T) {
	limits := line.DefaultLimits()
	for _, msg := range []Message{
		Command{Name: "BYE"},
		Command{Name: "OPTION", Parameters: "testing at 5%"},
		Command{Name: "SETDESC", Parameters: "Enter passphrase\n"},
		Data{Chunk: []byte("secret\n")},
		End{},
		Cancel{},
	} {
		raw, err := Serialize(msg, limits)
		if err != nil {
			t.Fatalf("serialize %T: %v", msg, err)
		}
		got, err := ParseRequest(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if diff := cmp.Diff(msg, got); diff != "" {
			t.Fatalf("round trip mismatch for %q:\n%s", raw, diff)
		}
	}
}

func TestResponseSerializeParseIdempotence(t *testing.T) {
	limits := line.DefaultLimits()
	for _, msg := range []Message{
		OK{},
		OK{Message: "Your orders please"},
		Err{Code: 1, Description: "General error"},
		Err{Code: 175},
		Status{Keyword: "PROGRESS", Text: "hello"},
		Status{Keyword: "KEYINFO"},
		Comment{Text: "informational"},
		Comment{},
		Data{Chunk: []byte("It grew by 5%!\n")},
		Inquire{Keyword: "PASSPHRASE"},
		Inquire{Keyword: "KEYDATA", Parameters: "--armor"},
	} {
		raw, err := Serialize(msg, limits)
		if err != nil {
			t.Fatalf("serialize %T: %v", msg, err)
		}
		got, err := ParseResponse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if diff := cmp.Diff(msg, got); diff != "" {
			t.Fatalf("round trip mismatch for %q:\n%s", raw, diff)
		}
	}
}

func TestSerializeEscapesParameters(t *testing.T) {
	raw, err := Serialize(Command{Name: "OPTION", Parameters: "testing at 5%"}, line.DefaultLimits())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(raw) != "OPTION testing at 5%25" {
		t.Fatalf("unexpected wire form: %q", raw)
	}
}

func TestSerializeErrFixedFormat(t *testing.T) {
	raw, err := Serialize(Err{Code: 1, Description: "General error"}, line.DefaultLimits())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(raw) != "ERR 1 General error" {
		t.Fatalf("unexpected wire form: %q", raw)
	}
}

func TestParseRequestInvalid(t *testing.T) {
	for _, raw := range []string{" invalid", "in-valid", ""} {
		if _, err := ParseRequest([]byte(raw)); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("input %q: expected ErrInvalidRequest, got %v", raw, err)
		}
	}
}

func TestParseRequestBareCommand(t *testing.T) {
	msg, err := ParseRequest([]byte("BYE"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cmd, ok := msg.(Command)
	if !ok || cmd.Name != "BYE" || cmd.Parameters != "" {
		t.Fatalf("unexpected message: %#v", msg)
	}
}

func TestParseRequestDecodesParameters(t *testing.T) {
	msg, err := ParseRequest([]byte("OPTION testing at 5%25"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cmd := msg.(Command)
	if cmd.Parameters != "testing at 5%" {
		t.Fatalf("unexpected parameters: %q", cmd.Parameters)
	}
}

func TestParseRequestInquireReplies(t *testing.T) {
	if msg, _ := ParseRequest([]byte("END")); msg != (End{}) {
		t.Fatalf("expected End, got %#v", msg)
	}
	if msg, _ := ParseRequest([]byte("CAN")); msg != (Cancel{}) {
		t.Fatalf("expected Cancel, got %#v", msg)
	}
	msg, err := ParseRequest([]byte("D secret%0A"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if data, ok := msg.(Data); !ok || !bytes.Equal(data.Chunk, []byte("secret\n")) {
		t.Fatalf("unexpected data: %#v", msg)
	}
}

func TestParseResponseInvalid(t *testing.T) {
	for _, raw := range []string{"", " invalid", "WAT nope", "ERR notanumber", "INQUIRE"} {
		if _, err := ParseResponse([]byte(raw)); !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("input %q: expected ErrInvalidResponse, got %v", raw, err)
		}
	}
}

func TestParseResponseErrLine(t *testing.T) {
	msg, err := ParseResponse([]byte("ERR 1 General error"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := msg.(Err)
	if e.Code != 1 || e.Description != "General error" {
		t.Fatalf("unexpected err message: %#v", e)
	}
}

func TestParseResponseMalformedEncoding(t *testing.T) {
	if _, err := ParseResponse([]byte("D bad%zzchunk")); !errors.Is(err, line.ErrMalformedEncoding) {
		t.Fatalf("expected ErrMalformedEncoding, got %v", err)
	}
}

func TestSerializeEnforcesLimit(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Serialize(Data{Chunk: long}, line.DefaultLimits())
	if !errors.Is(err, line.ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
}

func TestSerializeRejectsBadTokens(t *testing.T) {
	if _, err := Serialize(Command{Name: "in-valid"}, line.DefaultLimits()); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := Serialize(Inquire{Keyword: "no keyword"}, line.DefaultLimits()); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}
