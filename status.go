package bridge

// Status is the transport-level connection state of a Client.
//
// A connection attempt always moves disconnected -> connecting, and from
// connecting either to connected (dial succeeded) or back to disconnected
// (dial failed, or the socket dropped later). The client never jumps
// straight from disconnected to connected.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)
