package notify

import "context"

// Message is one donor notification. Delivery (SMS/email rendering, retries)
// is the sink's responsibility; the orchestrator only dispatches.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Contact is where a notification is delivered.
type Contact struct {
	DonorID string `json:"donor_id"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

//go:generate mockgen -source=sink.go -destination=mocks/sink_mock.go -package=mocks

// Sink is the external notification delivery contract. Implementations must
// honour ctx cancellation; the orchestrator bounds every Send with a timeout
// so one slow recipient cannot stall the batch.
type Sink interface {
	Send(ctx context.Context, contact Contact, msg Message) error
}
