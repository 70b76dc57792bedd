// Package protocol owns the Assuan wire contract and parsing primitives.
//
// Ownership boundary:
// - typed request/response line kinds
// - parse/serialize between wire lines and typed messages
// - the code+description error model shared by client and server
package protocol
