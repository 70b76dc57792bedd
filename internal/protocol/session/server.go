package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/assuan/internal/protocol"
	"github.com/danmuck/assuan/internal/protocol/line"
)

type serverState int

const (
	serverIdle serverState = iota
	serverDispatching
	serverAwaitingInquire
	serverClosed
)

// Handler implements one command. It may emit status, comment and data
// lines through ctx, block on an inquire, and concludes by returning nil
// (OK) or an error (ERR). A returned *protocol.Error is forwarded verbatim;
// any other error becomes the generic server fault.
type Handler func(ctx *ServerContext, parameters string) error

// Server drives one connection's worth of the server state machine:
// Idle -> Dispatching -> AwaitingInquireReply -> Dispatching -> Idle,
// with Closed terminal.
type Server struct {
	transport Transport
	cfg       Config
	log       zerolog.Logger

	handlers map[string]Handler
	state    serverState
	fatal    error
	stop     bool

	options map[string]string
	values  map[string]any

	lastCommand string
	okMessage   string
}

func NewServer(transport Transport, cfg Config) *Server {
	s := &Server{
		transport: transport,
		cfg:       cfg,
		log:       cfg.Logger,
		handlers:  make(map[string]Handler),
		options:   make(map[string]string),
		values:    make(map[string]any),
	}
	s.registerBuiltins()
	return s
}

// Register installs a handler under a case-insensitive command name,
// replacing any builtin of the same name.
func (s *Server) Register(name string, handler Handler) {
	s.handlers[strings.ToLower(name)] = handler
}

// Serve sends the greeting and processes commands until the client says
// BYE or the transport closes. A protocol violation or transport fault is
// returned once and leaves the session inert.
func (s *Server) Serve() error {
	if s.state == serverClosed {
		return s.closedErr()
	}
	if err := s.respond(protocol.OK{Message: s.cfg.Greeting}); err != nil {
		return s.fatal
	}
	for !s.stop {
		raw, err := s.transport.ReadLine()
		if errors.Is(err, ErrTransportClosed) {
			s.close()
			return nil
		}
		if err != nil {
			return s.fail("read", err)
		}
		s.log.Debug().Msgf("C: %s", raw)
		msg, err := protocol.ParseRequest(raw)
		if err != nil {
			// Recoverable: report and stay Idle.
			s.sendErr(protocol.NewError(s.cfg.Codes.InvalidRequest, "Invalid request"))
			if s.fatal != nil {
				return s.fatal
			}
			continue
		}
		cmd, ok := msg.(protocol.Command)
		if !ok {
			// D/END/CAN outside an inquire reply.
			return s.fail("dispatch", fmt.Errorf("%w: unsolicited %T", ErrProtocolViolation, msg))
		}
		s.dispatch(cmd)
		if s.fatal != nil {
			return s.fatal
		}
	}
	s.close()
	return nil
}

func (s *Server) dispatch(cmd protocol.Command) {
	s.lastCommand = cmd.Name
	start := time.Now()
	handler, ok := s.handlers[strings.ToLower(cmd.Name)]
	if !ok {
		s.log.Warn().Str("command", cmd.Name).Msg("unknown command")
		s.sendErr(protocol.NewError(s.cfg.Codes.UnknownCommand, "Unknown command"))
		s.observe(cmd.Name, "unknown", start)
		return
	}

	s.state = serverDispatching
	s.okMessage = ""
	err := s.invoke(handler, cmd.Parameters)
	if s.fatal != nil {
		return
	}
	s.state = serverIdle

	if err != nil {
		var werr *protocol.Error
		if !errors.As(err, &werr) {
			s.log.Error().Err(err).Str("command", cmd.Name).Msg("handler fault")
			werr = protocol.NewError(s.cfg.Codes.GeneralError, "Unspecific Assuan server fault")
		}
		s.sendErr(werr)
		s.observe(cmd.Name, "err", start)
		return
	}
	s.respond(protocol.OK{Message: s.okMessage})
	s.observe(cmd.Name, "ok", start)
}

// invoke shields the session from handler faults: a panic is reported as
// the generic server fault, never as a crash of the session.
func (s *Server) invoke(handler Handler, parameters string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("command", s.lastCommand).Msgf("handler panic: %v", r)
			err = protocol.NewError(s.cfg.Codes.GeneralError, "Unspecific Assuan server fault")
		}
	}()
	return handler(&ServerContext{s: s}, parameters)
}

// inquire runs the AwaitingInquireReply sub-dialog and returns the
// concatenated datum, or ErrInquireCancelled on CAN.
func (s *Server) inquire(keyword, parameters string) ([]byte, error) {
	if s.state != serverDispatching {
		return nil, fmt.Errorf("%w: inquire outside dispatch", ErrProtocolViolation)
	}
	if err := s.respond(protocol.Inquire{Keyword: keyword, Parameters: parameters}); err != nil {
		return nil, err
	}
	s.state = serverAwaitingInquire
	var datum []byte
	for {
		raw, err := s.transport.ReadLine()
		if err != nil {
			return nil, s.fail("inquire read", err)
		}
		s.log.Debug().Msgf("C: %s", raw)
		msg, err := protocol.ParseRequest(raw)
		if err != nil {
			return nil, s.fail("inquire parse", fmt.Errorf("%w: %v", ErrProtocolViolation, err))
		}
		switch m := msg.(type) {
		case protocol.Data:
			datum = append(datum, m.Chunk...)
		case protocol.End:
			s.state = serverDispatching
			return datum, nil
		case protocol.Cancel:
			s.state = serverDispatching
			return nil, ErrInquireCancelled
		default:
			return nil, s.fail("inquire", fmt.Errorf("%w: %T during inquire reply", ErrProtocolViolation, msg))
		}
	}
}

func (s *Server) respond(m protocol.Message) error {
	raw, err := protocol.Serialize(m, s.cfg.Limits)
	if err != nil {
		return s.fail("serialize", err)
	}
	s.log.Debug().Msgf("S: %s", raw)
	if err := s.transport.WriteLine(raw); err != nil {
		return s.fail("write", err)
	}
	return nil
}

func (s *Server) sendErr(werr *protocol.Error) {
	s.respond(protocol.Err{Code: werr.Code, Description: werr.Description})
}

func (s *Server) sendData(payload []byte) error {
	chunks, err := line.SplitData(payload, s.cfg.Limits)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := s.respond(protocol.Data{Chunk: chunk}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) observe(name, outcome string, start time.Time) {
	if s.cfg.OnCommand != nil {
		s.cfg.OnCommand(strings.ToUpper(name), outcome, time.Since(start))
	}
}

func (s *Server) fail(op string, err error) error {
	if s.fatal != nil {
		return s.fatal
	}
	s.fatal = fmt.Errorf("server session fatal during %s (last command %q): %w", op, s.lastCommand, err)
	s.log.Error().Err(err).Str("op", op).Str("last_command", s.lastCommand).Msg("session fatal")
	s.close()
	return s.fatal
}

func (s *Server) close() {
	if s.state != serverClosed {
		s.state = serverClosed
		s.transport.Close()
	}
}

func (s *Server) closedErr() error {
	if s.fatal != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, s.fatal)
	}
	return ErrSessionClosed
}
