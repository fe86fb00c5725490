package publishers

import "context"

// Publisher sends conversation events to a downstream sink (SQS, SNS,
// Pub/Sub, Kafka, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
