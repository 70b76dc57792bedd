package session

import "errors"

var (
	ErrTransportClosed   = errors.New("session: transport closed")
	ErrIncompleteLine    = errors.New("session: line not newline-terminated")
	ErrProtocolViolation = errors.New("session: protocol violation")
	ErrSessionClosed     = errors.New("session: session closed")
	ErrInquireCancelled  = errors.New("session: inquire cancelled by peer")
	ErrCommandInFlight   = errors.New("session: command already in flight")
)
