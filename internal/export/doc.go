// Package export publishes optimized uploads to the media platform.
//
// An Orchestrator runs a fixed sequence of steps and reports each one as a
// running event followed by exactly one terminal event. Consumers render the
// stream keyed by Target, replacing earlier events of the same step.
package export
