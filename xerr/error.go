// Package xerr defines the transport-internal error kinds shared by the
// socket and its supporting packages.
package xerr

type Error uint16

const (
	SendDropped Error = iota
	SocketClosed
	NotConnected
	SendQueueIsFull
	DispatchQueueIsFull
	MalformedEnvelope
	PongTimeout
	PollerNotConfigured
)

var errorMap = map[Error]string{
	SendDropped:         "send dropped while disconnected",
	SocketClosed:        "socket is closed",
	NotConnected:        "socket is not connected",
	SendQueueIsFull:     "send queue is full",
	DispatchQueueIsFull: "dispatch queue is full",
	MalformedEnvelope:   "malformed envelope",
	PongTimeout:         "pong timeout",
	PollerNotConfigured: "fallback poller not configured",
}

func (e Error) Error() string {
	return errorMap[e]
}

func (e Error) String() string {
	return errorMap[e]
}
