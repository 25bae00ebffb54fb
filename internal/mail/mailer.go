package mail

import (
	"context"
	"errors"
)

// ErrDeliveryFailed wraps transport-level failures so callers can map
// them to a delivery error without knowing the backend.
var ErrDeliveryFailed = errors.New("mail delivery failed")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
