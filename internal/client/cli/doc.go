// Package cli provides the interactive MaunaVault command-line client.
//
// It wires configuration, the local SQLite store of the auth session, the
// gRPC backend and the vault service, then runs a REPL until the user exits.
// On start a persisted auth session is resumed in the locked state and the
// user is asked for the password to unlock it.
//
// Commands:
//   - register, login, unlock, lock, logout, passwd
//   - status, show [collection]
//   - add <collection>, set-meta name=value...
//   - export [file], wipe
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
