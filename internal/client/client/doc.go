// Package client is the terminal client's connection to the auth service.
//
// GRPCClient wraps the generated-style authv1 stub and persists every token
// the server hands out in the local credential store. Calls that need an
// access token get it attached by a unary interceptor; when such a call is
// rejected as unauthenticated the interceptor asks the refresh coordinator
// for a new token and retries the call once.
//
// InitDatabase and RunMigrations bootstrap the SQLite file behind the store.
package client
