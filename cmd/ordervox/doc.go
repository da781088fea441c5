// Package main hosts the ordervox CLI entrypoint and command graph.
//
// The Cobra-based command tree covers running the API server, one-shot
// transcription from a local file, querying a running server's budget
// and cache state, and configuration scaffolding. Configuration
// resolution and component wiring are centralized here so subcommands
// stay declarative; the processing logic lives in the internal
// packages.
package main
