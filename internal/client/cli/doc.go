// Package cli is the interactive fintrack terminal client.
//
// It wires configuration, the local credential store and the gRPC client
// into a small REPL covering the account lifecycle: register, verify,
// login, password reset and session inspection. Tokens survive restarts in
// the local SQLite store; an expired access token is refreshed
// transparently, and a refresh that fails ends the session.
package cli
