package sa430

import "time"

// DefaultTimeout bounds each intra-transaction wait unless a caller picks a
// different deadline.
const DefaultTimeout = time.Second

// Transport is a bidirectional byte stream to one analyzer. Write sends a
// whole serialized frame; Read returns the bytes available within the
// configured timeout. Wait expiry surfaces as ErrTimeout, everything else as
// a TransportError, so the session layer never mistakes a dead link for a
// protocol NACK.
type Transport interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	SetTimeout(d time.Duration)
	// Flush discards buffered inbound bytes after an aborted transaction.
	Flush() error
	Close() error
}
