// Package transport implements ShareGo's peer-at-most-one WebSocket
// transport: a lifecycle state machine (idle, listening, connected,
// disconnected, closed) layered over pluggable server/client adapters
// (pkg/wsadapter), with a size limit and discovery-probe handling.
package transport
