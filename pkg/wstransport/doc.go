// Package wstransport provides two concrete implementations of the
// pkg/wsadapter capability interfaces: an in-memory adapter pair built
// on pkg/transport's Pipe for deterministic tests, and a real
// gorilla/websocket-backed adapter for the demo CLI.
package wstransport
