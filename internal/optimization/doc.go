// Package optimization runs the per-upload audio pipelines.
//
// Runner.Optimize claims an upload through a conditional status update,
// fetches the original into a scratch directory, runs the audio optimizer,
// stores the result and persists status, duration and log. Any failure after
// the claim is persisted as an error together with the failure text, so an
// upload never stays running because a step returned early. Runner.Waveform
// follows the same shape for the waveform image.
package optimization
