// Package kerrors defines the error taxonomy shared by the schema resolver,
// model registry, client adapter and persistence mapper.
//
// The taxonomy is deliberately asymmetric: schema, authentication and
// connection failures during model registration indicate a broken deployment
// and fail fast at startup, while data-level outcomes (not found, conflict)
// are typed errors the caller is expected to act on. Nothing in this package
// or its consumers retries automatically.
package kerrors
