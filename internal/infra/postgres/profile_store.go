package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"psych-assessment-service/internal/domain"
)

const uniqueViolation = "23505"

// ProfileStore keeps sign-up profiles in the users table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) CreateProfile(ctx context.Context, profile domain.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (uid, email, age, gender, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		profile.UID, profile.Email, profile.Age, profile.Gender, profile.PasswordHash, profile.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) ProfileByEmail(ctx context.Context, email string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT uid, email, age, gender, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&p.UID, &p.Email, &p.Age, &p.Gender, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, uid string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
