package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

type MessageRepository struct {
	db *gorm.DB
}

var _ core.MessageStore = (*MessageRepository)(nil)

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Send(ctx context.Context, m *domain.Message) error {
	entity := Message{
		Sender:   string(m.Sender),
		Receiver: string(m.Receiver),
		Body:     m.Body,
		IsSystem: m.IsSystem,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return errors.Wrap(err, "create message")
	}
	m.ID = entity.ID
	m.CreatedAt = entity.CreatedAt
	return nil
}

// Conversation returns the messages exchanged between a and b, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, a, b domain.Username) ([]domain.Message, error) {
	var rows []Message
	err := r.db.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)",
			string(a), string(b), string(b), string(a)).
		Order("created_at").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
