package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository reads the user table owned by the user-management service.
// Premium transitions happen elsewhere; this side only consumes the flags.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// GetOrCreateUser registers a user on first contact with the
	// assistant and returns the stored row either way.
	GetOrCreateUser(ctx context.Context, id int64, username string) (*model.User, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = "user_id, username, is_premium, signup_date, premium_activated_at, is_admin, created_at, updated_at"

func (r *userRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	u, err := r.scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %d: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetOrCreateUser(ctx context.Context, id int64, username string) (*model.User, error) {
	const insertQ = `
        INSERT INTO users (user_id, username, signup_date)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, insertQ, id, username); err != nil {
		return nil, fmt.Errorf("registering user %d: %w", id, err)
	}

	q := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	u, err := r.scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("fetch user %d after registration: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.IsPremium,
		&u.SignupDate,
		&u.PremiumActivatedAt,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
