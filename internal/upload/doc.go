// Package upload models the broadcast upload record shared by the audio
// optimization and export pipelines: the per-pipeline status machines, the
// distribution medium, linked shows, and the derived reference number and
// file naming rules.
package upload
