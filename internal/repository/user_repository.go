package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 새 사용자 생성
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash, fullName string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, full_name, avatar_url, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username, email, passwordHash, fullName).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail 이메일로 사용자 찾기
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

// FindByID ID로 사용자 찾기
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUsername 사용자명으로 찾기
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, full_name, avatar_url, created_at, updated_at
		FROM users
		%s
	`, where)

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 사용자 없음
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Update 사용자 정보 수정
func (r *UserRepository) Update(ctx context.Context, id, fullName string, avatarURL *string) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, avatar_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, username, email, full_name, avatar_url, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id, fullName, avatarURL).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
