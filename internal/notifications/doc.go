// Package notifications delivers pipeline events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when notifications are disabled.
// Optimization results and published news items are the two events operators
// care about; each can be switched off separately.
package notifications
