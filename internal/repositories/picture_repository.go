package repositories

import (
	"context"
	"database/sql"

	"givemepillow/internal/models"
)

type PictureRepository struct {
	DB *sql.DB
}

func NewPictureRepository(db *sql.DB) *PictureRepository {
	return &PictureRepository{DB: db}
}

// Get возвращает картинку вместе с id владельца и его username —
// достаточно, чтобы отдать файл с корректным именем и поднять счётчик
// скачиваний у поста.
func (r *PictureRepository) Get(ctx context.Context, id string) (*models.Picture, *models.User, error) {
	const q = `
		SELECT pic.id, pic.post_id, pic.format, pic.size, pic.width, pic.height,
		       u.id, u.username
		FROM pictures pic
		JOIN posts p ON p.id = pic.post_id
		JOIN users u ON u.id = p.user_id
		WHERE pic.id = $1
	`
	var pic models.Picture
	var owner models.User
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&pic.ID, &pic.PostID, &pic.Format, &pic.Size, &pic.Width, &pic.Height,
		&owner.ID, &owner.Username,
	)
	if err != nil {
		return nil, nil, wrap("picture get", err)
	}
	return &pic, &owner, nil
}
