package pinentry

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/session"
	"github.com/danmuck/assuan/internal/testutil/testlog"
)

func startPinentry(t *testing.T, ui UI) *session.Client {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	cfg := session.DefaultConfig()
	srv := New(session.NewConnTransport(serverConn, cfg.Limits), cfg, ui)
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	client := session.NewClient(session.NewConnTransport(clientConn, cfg.Limits), cfg)
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("pinentry session did not stop")
		}
	})
	if _, err := client.Greeting(); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	return client
}

func TestGetPinUsesSessionAttributes(t *testing.T) {
	testlog.Start(t)
	var gotDesc, gotPrompt string
	client := startPinentry(t, UI{
		GetPin: func(desc, prompt string) ([]byte, error) {
			gotDesc, gotPrompt = desc, prompt
			return []byte("hunter2"), nil
		},
	})

	if _, err := client.Do("SETDESC", "Enter your passphrase"); err != nil {
		t.Fatalf("SETDESC: %v", err)
	}
	if _, err := client.Do("SETPROMPT", "Passphrase:"); err != nil {
		t.Fatalf("SETPROMPT: %v", err)
	}
	res, err := client.Do("GETPIN", "")
	if err != nil {
		t.Fatalf("GETPIN: %v", err)
	}
	if string(res.Data) != "hunter2" {
		t.Fatalf("unexpected pin: %q", res.Data)
	}
	if gotDesc != "Enter your passphrase" || gotPrompt != "Passphrase:" {
		t.Fatalf("attributes not delivered: desc=%q prompt=%q", gotDesc, gotPrompt)
	}
}

func TestGetPinCancelled(t *testing.T) {
	testlog.Start(t)
	client := startPinentry(t, UI{
		GetPin: func(_, _ string) ([]byte, error) { return nil, ErrCancelled },
	})

	_, err := client.Do("GETPIN", "")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().Cancelled {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestConfirmDeclined(t *testing.T) {
	testlog.Start(t)
	answer := false
	client := startPinentry(t, UI{
		Confirm: func(_ string) (bool, error) { return answer, nil },
	})

	_, err := client.Do("CONFIRM", "")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().Cancelled {
		t.Fatalf("expected not-confirmed error, got %v", err)
	}

	answer = true
	if _, err := client.Do("CONFIRM", ""); err != nil {
		t.Fatalf("CONFIRM: %v", err)
	}
}

func TestGetInfo(t *testing.T) {
	testlog.Start(t)
	client := startPinentry(t, UI{})

	res, err := client.Do("GETINFO", "version")
	if err != nil {
		t.Fatalf("GETINFO: %v", err)
	}
	if string(res.Data) != Version {
		t.Fatalf("unexpected version: %q", res.Data)
	}

	_, err = client.Do("GETINFO", "bogus")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().InvalidParameter {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestGetPinWithoutSource(t *testing.T) {
	testlog.Start(t)
	client := startPinentry(t, UI{})

	_, err := client.Do("GETPIN", "")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().GeneralError {
		t.Fatalf("expected general error, got %v", err)
	}
}
