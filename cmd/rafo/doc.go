// Package main hosts the rafo CLI entrypoint and command graph.
//
// Commands work directly on the store and pipelines built by daemonrun, so
// optimize and export run in the calling process. serve starts the HTTP API
// that producers and the editorial frontend talk to.
package main
