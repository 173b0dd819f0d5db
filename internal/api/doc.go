// Package api serves the HTTP surface of rafo: upload status views,
// pipeline triggers, the live export feed and the local media files the
// publishing platform downloads.
//
// # Routes
//
// Upload routes live under /api/uploads/{id}. The export feed is available
// as server-sent events and as a websocket; both carry export.Event values
// encoded as JSON and end with an explicit close marker.
//
// # Authentication
//
// Requests carry a key, either as ?key= or as a bearer token. A key is the
// static access key or a short-lived HS256 link token whose subject is the
// upload ID. /media/ is public so the platform can fetch exported files.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Export events keep the field names of
// export.Event so browser clients can key on target.
package api
