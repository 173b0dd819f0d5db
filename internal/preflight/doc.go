// Package preflight provides readiness checks for the directories, binaries
// and remote services rafo depends on.
//
// The serve command runs RunAll on startup and logs every failed check; the
// status command and the /api/status endpoint show the same results.
package preflight
