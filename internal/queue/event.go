// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them. Account lifecycle flows
// publish these events instead of talking to a mail provider inline; a
// mailer worker picks them up asynchronously.
package queue

// Queue names. Durable queues on the default exchange, routing key equal
// to the queue name.
const (
	UserRegisteredQueue     = "account.registered"
	EmailChangeRequestQueue = "account.email_change_requested"
	ConfirmRequestQueue     = "account.confirm_requested"
)

// UserRegisteredEvent is published after a successful registration so the
// mailer can send a welcome message.
type UserRegisteredEvent struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

// EmailChangeRequestedEvent carries the confirmation token for a pending
// email change. The token, not this event, is the credential: applying
// the change still requires presenting it as the acting user.
type EmailChangeRequestedEvent struct {
	Username    string `json:"username"`
	NewEmail    string `json:"new_email"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at"`
}

// ConfirmRequestedEvent carries the account-confirmation token to be
// delivered to the user's current address.
type ConfirmRequestedEvent struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at"`
}
