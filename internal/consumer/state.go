package consumer

// State is the subscription lifecycle of the consumer.
type State int32

const (
	// StateDisconnected means no subscription has been established yet.
	StateDisconnected State = iota
	// StateConnecting means a subscription handshake is in flight.
	StateConnecting
	// StateStreaming means the push channel is live and the cache current.
	StateStreaming
	// StateDegraded means the subscription died; reads fall back to point
	// queries until a reconnect succeeds.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
