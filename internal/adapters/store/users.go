package store

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

type UserRepository struct {
	db   *gorm.DB
	cost int
}

var _ core.UserDirectory = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db, cost: bcrypt.DefaultCost}
}

// Create stores u with a bcrypt hash of password and fills in ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, password string) error {
	if len(password) < domain.MinPasswordLen {
		return domain.ErrPasswordEmpty
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	entity := User{
		Username:     string(u.Username),
		Email:        u.Email,
		PasswordHash: string(hash),
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&User{}).
			Where("username = ? OR email = ?", entity.Username, entity.Email).
			Count(&n).Error; err != nil {
			return errors.Wrap(err, "check user uniqueness")
		}
		if n > 0 {
			return errors.WithMessage(domain.ErrConflict, "username or email already exists")
		}
		if err := tx.Create(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.WithMessage(domain.ErrConflict, "username or email already exists")
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.ID = entity.ID
	u.PasswordHash = entity.PasswordHash
	u.CreatedAt = entity.CreatedAt
	return nil
}

func (r *UserRepository) Authenticate(ctx context.Context, username domain.Username, password string) (*domain.User, error) {
	var entity User
	err := r.db.WithContext(ctx).Where("username = ?", string(username)).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entity.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return entity.toDomain(), nil
}

func (r *UserRepository) Exists(ctx context.Context, username domain.Username) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", string(username)).Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "count users")
	}
	return n > 0, nil
}

func (r *UserRepository) ListExcept(ctx context.Context, username domain.Username) ([]domain.Username, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("username <> ?", string(username)).
		Order("username").
		Pluck("username", &names).Error
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	out := make([]domain.Username, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Username(n))
	}
	return out, nil
}

// Delete removes the account with its messages and every call it takes part
// in, and returns the ids of the removed calls.
func (r *UserRepository) Delete(ctx context.Context, username domain.Username) ([]domain.CallID, error) {
	name := string(username)
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("username = ?", name).Delete(&User{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete user")
		}
		if res.RowsAffected == 0 {
			return errors.WithMessage(domain.ErrNotFound, "user not found")
		}
		if err := tx.Where("sender = ? OR receiver = ?", name, name).Delete(&Message{}).Error; err != nil {
			return errors.Wrap(err, "delete messages")
		}
		if err := tx.Model(&Call{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("caller = ? OR receiver = ?", name, name).
			Pluck("call_id", &ids).Error; err != nil {
			return errors.Wrap(err, "find user calls")
		}
		if len(ids) == 0 {
			return nil
		}
		err := tx.Where("call_id IN ?", ids).Delete(&Call{}).Error
		return errors.Wrap(err, "delete user calls")
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
