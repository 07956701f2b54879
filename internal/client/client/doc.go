// Package client contains the client side of the MaunaVault backend API.
//
// # Overview
//
// The package provides:
//  1. The contracts the vault service depends on: AuthProvider (sign-up,
//     sign-in, session tokens, credential update, sign-out, session events)
//     and ObjectStore (one encrypted record per user).
//  2. GRPCClient, which implements both over gRPC. It injects the access
//     token with an interceptor, refreshes it transparently when the server
//     reports it expired, and maps status codes to sentinel errors.
//  3. Local database bootstrap for the CLI (InitDatabase, RunMigrations),
//     an SQLite file with embedded goose migrations.
//
// # Error Handling
//
// Callers match with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrNotSignedIn, and common.ErrorNotFound, common.ErrorAlreadyExists,
// common.ErrVersionConflict for record operations.
//
// # Concurrency
//
// GRPCClient is safe for concurrent use. All operations honor ctx.
package client
