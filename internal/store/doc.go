// Package store persists uploads and shows in SQLite.
//
// Pipeline status changes are conditional UPDATEs: TryStart claims a pipeline
// only while it is pending (export additionally requires an empty platform
// ID), and the Finish* methods only apply to running pipelines. Writes retry
// briefly on SQLITE_BUSY; no other retries happen here.
package store
