package session

import (
	"github.com/danmuck/assuan/internal/protocol"
)

// ServerContext is the capability handle a handler drives a command
// through. It is only valid for the duration of the handler call.
type ServerContext struct {
	s *Server
}

// Status emits an "S keyword text" line, flushed immediately.
func (c *ServerContext) Status(keyword, text string) error {
	return c.s.respond(protocol.Status{Keyword: keyword, Text: text})
}

// Comment emits a "# text" line.
func (c *ServerContext) Comment(text string) error {
	return c.s.respond(protocol.Comment{Text: text})
}

// Data emits payload as one or more D lines, honoring the line limit.
func (c *ServerContext) Data(payload []byte) error {
	return c.s.sendData(payload)
}

// Inquire requests a datum from the client and blocks until the client
// answers with D*+END (the concatenated payload) or CAN
// (ErrInquireCancelled).
func (c *ServerContext) Inquire(keyword, parameters string) ([]byte, error) {
	return c.s.inquire(keyword, parameters)
}

// SetOK overrides the text of the OK line sent when the handler returns nil.
func (c *ServerContext) SetOK(message string) {
	c.s.okMessage = message
}

// Option returns a session option set via the OPTION command.
func (c *ServerContext) Option(name string) (string, bool) {
	v, ok := c.s.options[name]
	return v, ok
}

// SetValue stores handler state scoped to the session.
func (c *ServerContext) SetValue(key string, v any) {
	c.s.values[key] = v
}

// Value reads handler state scoped to the session.
func (c *ServerContext) Value(key string) (any, bool) {
	v, ok := c.s.values[key]
	return v, ok
}

// Reset clears session options and handler state.
func (c *ServerContext) Reset() {
	clear(c.s.options)
	clear(c.s.values)
}
