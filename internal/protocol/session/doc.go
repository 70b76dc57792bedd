// Package session owns the two cooperating Assuan state machines.
//
// Ownership boundary:
// - the transport port (read line / write line) both sides consume
// - the server session: command dispatch, INQUIRE sub-dialogs, OK/ERR
// - the client session: command transactions and incremental responses
//
// A session is strictly synchronous and half-duplex: one command runs to
// completion, including any nested INQUIRE exchange, before the next line
// is accepted. Independent sessions share no state.
package session
