package domain

import "time"

type (
	CallID     string
	CallStatus string
)

const (
	CallPending  CallStatus = "pending"
	CallAccepted CallStatus = "accepted"
	// CallEnded is never stored; a missing record means the call ended.
	CallEnded CallStatus = "ended"
)

// CallRecord is the durable, authoritative state of one call attempt.
type CallRecord struct {
	ID        CallID     `json:"call_id"`
	Caller    Username   `json:"caller"`
	Receiver  Username   `json:"receiver"`
	Status    CallStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

func (c *CallRecord) IsParticipant(u Username) bool {
	return c.Caller == u || c.Receiver == u
}
