// Package daemon owns the lifecycle of the long-running rafo server.
//
// It takes a flock-based lock so only one instance serves a work directory,
// removes staging runs left behind by a crash, logs failed preflight checks
// and starts the API server under a cancellable context.
package daemon
