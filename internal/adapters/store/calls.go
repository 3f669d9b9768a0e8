package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

// CallRepository persists call records. Status transitions run inside a
// transaction with a row lock (postgres) and a status-guarded update, so a
// call is accepted at most once and never after it was deleted.
type CallRepository struct {
	db *gorm.DB
}

var _ core.CallDirectory = (*CallRepository)(nil)

func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

func (r *CallRepository) Create(ctx context.Context, rec *domain.CallRecord) error {
	entity := newCall(rec)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.WithMessage(domain.ErrConflict, "call id already in use")
		}
		return errors.Wrap(err, "create call")
	}
	rec.CreatedAt = entity.CreatedAt
	return nil
}

// Get returns nil, nil when the call does not exist.
func (r *CallRepository) Get(ctx context.Context, id domain.CallID) (*domain.CallRecord, error) {
	var entity Call
	err := r.db.WithContext(ctx).Where("call_id = ?", string(id)).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get call")
	}
	return entity.toDomain(), nil
}

func (r *CallRepository) Accept(ctx context.Context, id domain.CallID, by domain.Username) (*domain.CallRecord, error) {
	var out *domain.CallRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity Call
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("call_id = ? AND status = ?", string(id), string(domain.CallPending)).
			First(&entity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidCall
		}
		if err != nil {
			return errors.Wrap(err, "load call")
		}
		if entity.Receiver != string(by) {
			return domain.ErrForbidden
		}
		res := tx.Model(&Call{}).
			Where("call_id = ? AND status = ?", string(id), string(domain.CallPending)).
			Update("status", string(domain.CallAccepted))
		if res.Error != nil {
			return errors.Wrap(res.Error, "accept call")
		}
		if res.RowsAffected != 1 {
			return domain.ErrInvalidCall
		}
		entity.Status = string(domain.CallAccepted)
		out = entity.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CallRepository) Delete(ctx context.Context, id domain.CallID) error {
	err := r.db.WithContext(ctx).Where("call_id = ?", string(id)).Delete(&Call{}).Error
	return errors.Wrap(err, "delete call")
}

// LatestPendingFor returns nil, nil when receiver has no pending call.
func (r *CallRepository) LatestPendingFor(ctx context.Context, receiver domain.Username) (*domain.CallRecord, error) {
	var entity Call
	err := r.db.WithContext(ctx).
		Where("receiver = ? AND status = ?", string(receiver), string(domain.CallPending)).
		Order("created_at DESC").
		Order("id DESC").
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find pending call")
	}
	return entity.toDomain(), nil
}

// DeletePendingBefore removes calls still pending at cutoff and returns the
// ids it removed. The rows are locked first so a concurrent Accept either
// wins before the select or waits and then finds the row gone.
func (r *CallRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) ([]domain.CallID, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Call{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND created_at < ?", string(domain.CallPending), cutoff).
			Pluck("call_id", &ids).Error; err != nil {
			return errors.Wrap(err, "find stale calls")
		}
		if len(ids) == 0 {
			return nil
		}
		res := tx.Where("call_id IN ? AND status = ?", ids, string(domain.CallPending)).Delete(&Call{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete stale calls")
		}
		if res.RowsAffected != int64(len(ids)) {
			return errors.Errorf("deleted %d of %d stale calls", res.RowsAffected, len(ids))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.CallID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.CallID(id))
	}
	return out, nil
}
