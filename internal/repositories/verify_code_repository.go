package repositories

import (
	"context"
	"database/sql"
	"time"

	"givemepillow/internal/models"
)

type VerifyCodeRepository struct {
	DB *sql.DB
}

func NewVerifyCodeRepository(db *sql.DB) *VerifyCodeRepository {
	return &VerifyCodeRepository{DB: db}
}

// Upsert — на email живёт максимум один код: повторная отправка
// перезаписывает запись и сбрасывает счётчик попыток.
func (r *VerifyCodeRepository) Upsert(ctx context.Context, vc *models.VerifyCode) error {
	const q = `
		INSERT INTO verify_codes (email, code_hash, expires_at, attempts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    attempts = EXCLUDED.attempts
	`
	_, err := r.DB.ExecContext(ctx, q, vc.Email, vc.CodeHash, vc.ExpiresAt, vc.Attempts)
	return wrap("verify code upsert", err)
}

func (r *VerifyCodeRepository) Get(ctx context.Context, email string) (*models.VerifyCode, error) {
	const q = `
		SELECT email, code_hash, expires_at, attempts
		FROM verify_codes
		WHERE email = $1
	`
	var vc models.VerifyCode
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&vc.Email, &vc.CodeHash, &vc.ExpiresAt, &vc.Attempts)
	if err != nil {
		return nil, wrap("verify code get", err)
	}
	return &vc, nil
}

// DecrementAttempts списывает попытку одним условным UPDATE: два
// конкурентных неверных ввода не могут потратить одну и ту же
// последнюю попытку. Когда попыток не осталось (или записи нет),
// возвращает ErrNotFound — вызывающий удаляет запись.
func (r *VerifyCodeRepository) DecrementAttempts(ctx context.Context, email string) (int, error) {
	const q = `
		UPDATE verify_codes
		SET attempts = attempts - 1
		WHERE email = $1 AND attempts > 1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, q, email).Scan(&attempts); err != nil {
		return 0, wrap("verify code decrement", err)
	}
	return attempts, nil
}

func (r *VerifyCodeRepository) Delete(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM verify_codes WHERE email = $1`, email)
	return wrap("verify code delete", err)
}

// DeleteExpired — фоновая зачистка протухших кодов (подстраховка, основной
// путь удаления — Confirm).
func (r *VerifyCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM verify_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, wrap("verify code delete expired", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
