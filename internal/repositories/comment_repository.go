package repositories

import (
	"context"
	"database/sql"

	"givemepillow/internal/models"
)

type CommentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func (r *CommentRepository) Add(ctx context.Context, c *models.Comment) error {
	const q = `
		INSERT INTO comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at
	`
	err := r.DB.QueryRowContext(ctx, q, c.PostID, c.UserID, c.Text).Scan(&c.ID, &c.SentAt)
	return wrap("comment add", err)
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	const q = `
		SELECT c.id, c.post_id, c.user_id, c.text, c.sent_at,
		       u.id, u.username, COALESCE(u.name, ''), u.avatar_id
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.sent_at
	`
	rows, err := r.DB.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, wrap("comment list", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		var u models.User
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Text, &c.SentAt,
			&u.ID, &u.Username, &u.Name, &u.AvatarID,
		); err != nil {
			return nil, wrap("comment scan", err)
		}
		c.User = &u
		comments = append(comments, c)
	}
	return comments, wrap("comment rows", rows.Err())
}
