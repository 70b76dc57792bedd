package agent

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/session"
	"github.com/danmuck/assuan/internal/testutil/testlog"
)

func startAgent(t *testing.T) *session.Client {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	cfg := session.DefaultConfig()
	srv := New(session.NewConnTransport(serverConn, cfg.Limits), cfg, "test-agent", "/tmp/test-agent.sock")
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	client := session.NewClient(session.NewConnTransport(clientConn, cfg.Limits), cfg)
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("agent session did not stop")
		}
	})
	if _, err := client.Greeting(); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	return client
}

func TestEcho(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)

	res, err := client.Do("ECHO", "ping %100\n")
	if err != nil {
		t.Fatalf("ECHO: %v", err)
	}
	if string(res.Data) != "ping %100\n" {
		t.Fatalf("unexpected echo: %q", res.Data)
	}
}

func TestStoreAndFetch(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)
	secret := []byte("s3cr3t\nbytes")

	client.OnInquire(func(keyword, parameters string) ([]byte, error) {
		if keyword != "VALUE" || parameters != "token" {
			t.Errorf("unexpected inquire %q %q", keyword, parameters)
		}
		return secret, nil
	})
	res, err := client.Do("STORE", "token")
	if err != nil {
		t.Fatalf("STORE: %v", err)
	}
	if res.Message != "stored 12 bytes" {
		t.Fatalf("unexpected OK message: %q", res.Message)
	}

	res, err = client.Do("FETCH", "token")
	if err != nil {
		t.Fatalf("FETCH: %v", err)
	}
	if !bytes.Equal(res.Data, secret) {
		t.Fatalf("fetched %q, want %q", res.Data, secret)
	}
}

func TestStoreCancelled(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)

	// No inquire callback: the client cancels the VALUE inquiry.
	_, err := client.Do("STORE", "token")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().Cancelled {
		t.Fatalf("expected cancelled error, got %v", err)
	}

	_, err = client.Do("FETCH", "token")
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().GeneralError {
		t.Fatalf("cancelled store must not persist, got %v", err)
	}
}

func TestFetchMissingKey(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)

	_, err := client.Do("FETCH", "nope")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().GeneralError {
		t.Fatalf("expected general error, got %v", err)
	}
}

func TestStoreMissingKey(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)

	_, err := client.Do("STORE", "")
	var werr *protocol.Error
	if !errors.As(err, &werr) || werr.Code != protocol.DefaultCodes().InvalidParameter {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestGetInfo(t *testing.T) {
	testlog.Start(t)
	client := startAgent(t)

	for attr, want := range map[string]string{
		"name":        "test-agent",
		"version":     Version,
		"socket_name": "/tmp/test-agent.sock",
	} {
		res, err := client.Do("GETINFO", attr)
		if err != nil {
			t.Fatalf("GETINFO %s: %v", attr, err)
		}
		if string(res.Data) != want {
			t.Fatalf("GETINFO %s: got %q, want %q", attr, res.Data, want)
		}
	}
}
