package store

import (
	"time"

	"github.com/dkeye/Messenger/internal/domain"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	CreatedAt    time.Time
}

func (e *User) toDomain() *domain.User {
	return &domain.User{
		ID:           e.ID,
		Username:     domain.Username(e.Username),
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
	}
}

type Call struct {
	ID        uint   `gorm:"primaryKey"`
	CallID    string `gorm:"uniqueIndex;size:64;not null"`
	Caller    string `gorm:"size:64;not null"`
	Receiver  string `gorm:"index:idx_calls_receiver_status;size:64;not null"`
	Status    string `gorm:"index:idx_calls_receiver_status;size:16;not null;default:pending"`
	CreatedAt time.Time
}

func newCall(rec *domain.CallRecord) *Call {
	return &Call{
		CallID:    string(rec.ID),
		Caller:    string(rec.Caller),
		Receiver:  string(rec.Receiver),
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
	}
}

func (e *Call) toDomain() *domain.CallRecord {
	return &domain.CallRecord{
		ID:        domain.CallID(e.CallID),
		Caller:    domain.Username(e.Caller),
		Receiver:  domain.Username(e.Receiver),
		Status:    domain.CallStatus(e.Status),
		CreatedAt: e.CreatedAt,
	}
}

type Message struct {
	ID        uint   `gorm:"primaryKey"`
	Sender    string `gorm:"index;size:64;not null"`
	Receiver  string `gorm:"index;size:64;not null"`
	Body      string `gorm:"type:text;not null"`
	IsSystem  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (e *Message) toDomain() domain.Message {
	return domain.Message{
		ID:        e.ID,
		Sender:    domain.Username(e.Sender),
		Receiver:  domain.Username(e.Receiver),
		Body:      e.Body,
		IsSystem:  e.IsSystem,
		CreatedAt: e.CreatedAt,
	}
}
