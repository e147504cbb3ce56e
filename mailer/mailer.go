// Package mailer delivers rendered digests to the subscriber's mailbox.
package mailer

import "context"

// Email is a single outbound message.
type Email struct {
	To       string // Recipient address
	Subject  string
	HTMLBody string
	Label    string // Mailbox label to apply after sending; empty skips labeling
}

// Sender delivers an email to its recipient.
type Sender interface {
	Send(ctx context.Context, email Email) error
}
