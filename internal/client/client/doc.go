// Package client is the remote side of the journal sync contract.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see Client and JournalAPI) for the
//     Kenala backend: journal list/get/create/update/delete, Login and Ping.
//  2. A concrete HTTP+JSON implementation (see HTTPClient) that injects the
//     session token into every request and maps responses to sentinel
//     errors.
//
// The client is stateless and never retries. Each call is one request.
//
// # Error Handling
//
// Conditions are exposed as errors callers match with errors.Is or
// errors.As: ErrUnavailable (no connection or timeout), ErrEmptyResponse
// (2xx without data), ErrUnauthorized, ErrConflict and *StatusError for any
// other non-2xx status. A caller cancellation is returned as ctx.Err().
package client
