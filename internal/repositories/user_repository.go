package repositories

import (
	"context"
	"database/sql"

	"givemepillow/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Add(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (username, email, name, bio, telegram_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		RETURNING id, registered_at
	`
	err := r.DB.QueryRowContext(ctx, q, u.Username, u.Email, u.Name, u.Bio, u.TelegramID).
		Scan(&u.ID, &u.RegisteredAt)
	return wrap("user add", err)
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.one(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.one(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.one(ctx, `WHERE telegram_id = $1`, telegramID)
}

func (r *UserRepository) one(ctx context.Context, where string, arg any) (*models.User, error) {
	q := `
		SELECT id, username, email, COALESCE(name, ''), COALESCE(bio, ''),
		       avatar_id, telegram_id, registered_at
		FROM users ` + where
	var u models.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Name, &u.Bio,
		&u.AvatarID, &u.TelegramID, &u.RegisteredAt,
	)
	if err != nil {
		return nil, wrap("user get", err)
	}
	return &u, nil
}

func (r *UserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, wrap("username available", err)
	}
	return !exists, nil
}

// UpdateProfile — частичное обновление: NULL-аргумент не трогает колонку,
// пустая строка очищает её.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, bio *string) error {
	const q = `
		UPDATE users
		SET name = CASE WHEN $2::text IS NULL THEN name ELSE NULLIF($2, '') END,
		    bio  = CASE WHEN $3::text IS NULL THEN bio ELSE NULLIF($3, '') END
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, q, id, name, bio)
	return wrap("user update profile", err)
}

// UpdateAvatar возвращает прежний avatar_id, чтобы вызывающий удалил
// устаревшие файлы после коммита.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id int64, avatarID string) (*string, error) {
	const q = `
		UPDATE users u SET avatar_id = $2
		FROM (SELECT avatar_id FROM users WHERE id = $1) old
		WHERE u.id = $1
		RETURNING old.avatar_id
	`
	var previous *string
	if err := r.DB.QueryRowContext(ctx, q, id, avatarID).Scan(&previous); err != nil {
		return nil, wrap("user update avatar", err)
	}
	return previous, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrap("user delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap("user delete", sql.ErrNoRows)
	}
	return nil
}
