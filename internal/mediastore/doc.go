// Package mediastore stores original and derived media files.
//
// Local keeps files in a directory that the API serves under /media/, so
// paths.public_url must be reachable by the publishing platform. MinIO keeps
// them in an S3-compatible bucket and hands out presigned URLs instead.
package mediastore
