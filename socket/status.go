// Package socket provides the reliable realtime channel of the transport
// layer: one connection at a time, heartbeat liveness, bounded
// exponential-backoff reconnection, and degradation to REST polling once
// the reconnect budget is spent.
package socket

// Status represents the current state of the socket.
type Status uint8

const (
	// StatusUnknown is the state before the first Connect call.
	StatusUnknown Status = iota
	// StatusConnecting indicates a dial is in progress.
	StatusConnecting
	// StatusConnected indicates a live connection with an armed heartbeat.
	StatusConnected
	// StatusReconnecting indicates a reconnect wait or dial is in progress.
	StatusReconnecting
	// StatusFallback indicates the reconnect budget is spent and the socket
	// serves data through interval polling instead.
	StatusFallback
	// StatusClosed is the terminal state entered only by an explicit Close.
	StatusClosed
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusReconnecting:
		return "Reconnecting"
	case StatusFallback:
		return "Fallback"
	case StatusClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
