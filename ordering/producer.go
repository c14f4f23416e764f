package ordering

import (
	"context"
)

// the append-log transport. Send pushes one serialized envelope onto the log;
// all envelopes with the same partition key land on the same ordered stream,
// in send order.
type Producer interface {
	Send(ctx context.Context, message []byte, partitionKey string) error
}

// the out-of-band delivery path for full operation payloads when the log
// envelope is split
type ContentPublisher interface {
	Publish(ctx context.Context, message *ContentMessage) error
}

// one client's socket-like session. Join subscribes the session to a named
// broadcast channel.
type Socket interface {
	Join(ctx context.Context, room string) error
}
