package session

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/line"
)

type clientState int

const (
	clientReady clientState = iota
	clientAwaitingResponse
	clientRespondingToInquire
	clientClosed
)

// InquireFunc answers a server inquire with a payload, or reports
// ErrInquireCancelled to send CAN instead.
type InquireFunc func(keyword, parameters string) ([]byte, error)

// Result is the terminal outcome of one command transaction.
type Result struct {
	// Message is the text of the terminating OK line, if any.
	Message string
	// Status holds the status lines in arrival order.
	Status []protocol.Status
	// Comments holds comment line text in arrival order.
	Comments []string
	// Data is the logical datum: all D chunks concatenated in order.
	Data []byte
}

// Client drives the client state machine: Ready -> AwaitingResponse ->
// {Ready | RespondingToInquire}, with Closed terminal.
type Client struct {
	transport Transport
	cfg       Config
	log       zerolog.Logger

	state       clientState
	fatal       error
	inquire     InquireFunc
	lastCommand string
}

func NewClient(transport Transport, cfg Config) *Client {
	return &Client{
		transport: transport,
		cfg:       cfg,
		log:       cfg.Logger,
	}
}

// OnInquire installs the default answer for server inquires during Do.
func (c *Client) OnInquire(f InquireFunc) {
	c.inquire = f
}

// Greeting consumes the server's initial OK line.
func (c *Client) Greeting() (string, error) {
	msg, err := c.readResponse()
	if err != nil {
		return "", err
	}
	switch m := msg.(type) {
	case protocol.OK:
		return m.Message, nil
	case protocol.Err:
		return "", protocol.NewError(m.Code, m.Description)
	default:
		return "", c.fail("greeting", fmt.Errorf("%w: %T instead of greeting", ErrProtocolViolation, msg))
	}
}

// Send writes one command line. Only valid in the Ready state.
func (c *Client) Send(name, parameters string) error {
	if c.state == clientClosed {
		return c.closedErr()
	}
	if c.state != clientReady {
		return ErrCommandInFlight
	}
	raw, err := protocol.Serialize(protocol.Command{Name: name, Parameters: parameters}, c.cfg.Limits)
	if err != nil {
		return err
	}
	c.log.Debug().Msgf("C: %s", raw)
	if err := c.transport.WriteLine(raw); err != nil {
		return c.fail("write", err)
	}
	c.lastCommand = name
	c.state = clientAwaitingResponse
	return nil
}

// Next reads one response line. Status, comment and data lines surface as
// they arrive; an inquire suspends the stream until ReplyWithData or
// CancelInquire; OK or ERR returns the session to Ready.
func (c *Client) Next() (protocol.Message, error) {
	if c.state == clientClosed {
		return nil, c.closedErr()
	}
	if c.state != clientAwaitingResponse {
		return nil, fmt.Errorf("%w: no response pending", ErrProtocolViolation)
	}
	msg, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	switch msg.(type) {
	case protocol.Status, protocol.Comment, protocol.Data:
		return msg, nil
	case protocol.Inquire:
		c.state = clientRespondingToInquire
		return msg, nil
	case protocol.OK, protocol.Err:
		c.state = clientReady
		return msg, nil
	default:
		return nil, c.fail("response", fmt.Errorf("%w: unexpected %T", ErrProtocolViolation, msg))
	}
}

// ReplyWithData resolves a pending inquire: the payload goes out as D
// lines honoring the line limit, followed by END.
func (c *Client) ReplyWithData(payload []byte) error {
	if c.state == clientClosed {
		return c.closedErr()
	}
	if c.state != clientRespondingToInquire {
		return fmt.Errorf("%w: no inquire pending", ErrProtocolViolation)
	}
	chunks, err := line.SplitData(payload, c.cfg.Limits)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := c.writeRequest(protocol.Data{Chunk: chunk}); err != nil {
			return err
		}
	}
	if err := c.writeRequest(protocol.End{}); err != nil {
		return err
	}
	c.state = clientAwaitingResponse
	return nil
}

// CancelInquire resolves a pending inquire with CAN. The server still owes
// the command's OK/ERR terminator, so the session keeps awaiting it.
func (c *Client) CancelInquire() error {
	if c.state == clientClosed {
		return c.closedErr()
	}
	if c.state != clientRespondingToInquire {
		return fmt.Errorf("%w: no inquire pending", ErrProtocolViolation)
	}
	if err := c.writeRequest(protocol.Cancel{}); err != nil {
		return err
	}
	c.state = clientAwaitingResponse
	return nil
}

// Do runs one full command transaction, accumulating status, comment and
// data lines. Inquires are answered by the OnInquire callback; without one
// they are cancelled. An ERR terminator returns the partial Result
// alongside the *protocol.Error.
func (c *Client) Do(name, parameters string) (*Result, error) {
	if err := c.Send(name, parameters); err != nil {
		return nil, err
	}
	res := &Result{}
	var data bytes.Buffer
	for {
		msg, err := c.Next()
		if err != nil {
			return nil, err
		}
		switch m := msg.(type) {
		case protocol.Status:
			res.Status = append(res.Status, m)
		case protocol.Comment:
			res.Comments = append(res.Comments, m.Text)
		case protocol.Data:
			data.Write(m.Chunk)
		case protocol.Inquire:
			if err := c.answerInquire(m); err != nil {
				return nil, err
			}
		case protocol.OK:
			res.Message = m.Message
			res.Data = data.Bytes()
			return res, nil
		case protocol.Err:
			res.Data = data.Bytes()
			return res, protocol.NewError(m.Code, m.Description)
		}
	}
}

func (c *Client) answerInquire(inq protocol.Inquire) error {
	if c.inquire == nil {
		return c.CancelInquire()
	}
	payload, err := c.inquire(inq.Keyword, inq.Parameters)
	if err != nil {
		if !errors.Is(err, ErrInquireCancelled) {
			c.log.Warn().Err(err).Str("keyword", inq.Keyword).Msg("inquire callback failed")
		}
		return c.CancelInquire()
	}
	return c.ReplyWithData(payload)
}

// Close ends the session; further calls fail with ErrSessionClosed.
func (c *Client) Close() error {
	if c.state == clientClosed {
		return nil
	}
	c.state = clientClosed
	return c.transport.Close()
}

func (c *Client) readResponse() (protocol.Message, error) {
	raw, err := c.transport.ReadLine()
	if err != nil {
		return nil, c.fail("read", err)
	}
	c.log.Debug().Msgf("S: %s", raw)
	msg, err := protocol.ParseResponse(raw)
	if err != nil {
		return nil, c.fail("parse", err)
	}
	return msg, nil
}

func (c *Client) writeRequest(m protocol.Message) error {
	raw, err := protocol.Serialize(m, c.cfg.Limits)
	if err != nil {
		return err
	}
	c.log.Debug().Msgf("C: %s", raw)
	if err := c.transport.WriteLine(raw); err != nil {
		return c.fail("write", err)
	}
	return nil
}

func (c *Client) fail(op string, err error) error {
	if c.fatal != nil {
		return c.fatal
	}
	c.fatal = fmt.Errorf("client session fatal during %s (last command %q): %w", op, c.lastCommand, err)
	c.log.Error().Err(err).Str("op", op).Str("last_command", c.lastCommand).Msg("session fatal")
	c.state = clientClosed
	c.transport.Close()
	return c.fatal
}

func (c *Client) closedErr() error {
	if c.fatal != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, c.fatal)
	}
	return ErrSessionClosed
}
