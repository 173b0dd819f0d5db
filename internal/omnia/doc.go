// Package omnia is a client for the nexx.cloud Omnia media and management
// APIs.
//
// Every request is signed with the X-Request-CID (session) and
// X-Request-Token (md5 of operation, domain ID and API secret) headers.
// Bodies are form encoded. Responses share a {metadata, result} envelope;
// network failures are tagged services.ErrRemoteTransport and non-2xx
// statuses or error hints services.ErrRemoteApplication.
package omnia
