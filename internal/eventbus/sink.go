package eventbus

import "context"

// Sink receives every ring entry for out-of-process delivery (Kafka mirror,
// postgres archive). Sinks are fed by a single background worker so a slow
// sink never blocks Publish; a sink error is logged and dropped.
type Sink interface {
	Write(ctx context.Context, e Entry) error
	Close() error
}
