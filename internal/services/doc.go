// Package services defines shared utilities consumed by the optimization and
// export pipelines and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp upload IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (analysis, encoding, guard violations, remote transport, validation).
//
// Use these helpers when wiring new pipeline logic so failure handling and
// observability stay uniform.
package services
