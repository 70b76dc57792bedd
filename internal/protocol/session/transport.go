package session

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/danmuck/assuan/internal/protocol/line"
)

// Transport is the port both sessions consume: one wire line in, one wire
// line out. Lines carry no terminator; the transport owns the newline.
type Transport interface {
	ReadLine() ([]byte, error)
	WriteLine([]byte) error
	Close() error
}

// StreamTransport frames lines over a bidirectional byte stream (pipe, Unix
// domain socket, or subprocess stdio).
type StreamTransport struct {
	r      *bufio.Reader
	w      io.Writer
	limits line.Limits
	closer io.Closer
}

func NewStreamTransport(r io.Reader, w io.Writer, limits line.Limits) *StreamTransport {
	return &StreamTransport{
		r:      bufio.NewReader(r),
		w:      w,
		limits: limits,
	}
}

// NewConnTransport wraps a connected socket; Close closes the socket.
func NewConnTransport(conn net.Conn, limits line.Limits) *StreamTransport {
	t := NewStreamTransport(conn, conn, limits)
	t.closer = conn
	return t
}

// NewPipeTransport pairs a read end and a write end that close separately,
// as with subprocess stdio.
func NewPipeTransport(r io.ReadCloser, w io.WriteCloser, limits line.Limits) *StreamTransport {
	t := NewStreamTransport(r, w, limits)
	t.closer = multiCloser{r, w}
	return t
}

func (t *StreamTransport) ReadLine() ([]byte, error) {
	raw, err := t.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
			if len(raw) > 0 {
				return nil, ErrIncompleteLine
			}
			return nil, ErrTransportClosed
		}
		return nil, err
	}
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	if err := t.limits.Check(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *StreamTransport) WriteLine(l []byte) error {
	buf := make([]byte, 0, len(l)+1)
	buf = append(buf, l...)
	buf = append(buf, '\n')
	if _, err := t.w.Write(buf); err != nil {
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
			return ErrTransportClosed
		}
		return err
	}
	return nil
}

func (t *StreamTransport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

type multiCloser struct {
	r io.Closer
	w io.Closer
}

func (m multiCloser) Close() error {
	rerr := m.r.Close()
	werr := m.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
