package repositories

import (
	"context"
	"database/sql"
	"time"

	"givemepillow/internal/models"
)

type PostRepository struct {
	DB *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{DB: db}
}

// AddWithPictures пишет пост и строки картинок одной транзакцией: либо
// публикация видна целиком, либо в БД не остаётся ничего. Файлы к этому
// моменту уже лежат в хранилище, при откате их убирает вызывающий.
func (r *PostRepository) AddWithPictures(ctx context.Context, post *models.Post) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrap("post tx begin", err)
	}
	defer tx.Rollback()

	const insertPost = `
		INSERT INTO posts (user_id, title, description, aspect_ratio)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, insertPost,
		post.UserID, post.Title, post.Description, post.AspectRatio,
	).Scan(&post.ID, &post.CreatedAt); err != nil {
		return wrap("post add", err)
	}

	const insertPicture = `
		INSERT INTO pictures (id, post_id, format, size, width, height)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range post.Pictures {
		post.Pictures[i].PostID = post.ID
		p := &post.Pictures[i]
		if _, err := tx.ExecContext(ctx, insertPicture,
			p.ID, p.PostID, p.Format, p.Size, p.Width, p.Height,
		); err != nil {
			return wrap("picture add", err)
		}
	}

	return wrap("post tx commit", tx.Commit())
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*models.Post, error) {
	const q = `
		SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''),
		       p.aspect_ratio, p.views, p.downloads, p.created_at,
		       u.id, u.username, COALESCE(u.name, ''), u.avatar_id
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var post models.Post
	var user models.User
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&post.ID, &post.UserID, &post.Title, &post.Description,
		&post.AspectRatio, &post.Views, &post.Downloads, &post.CreatedAt,
		&user.ID, &user.Username, &user.Name, &user.AvatarID,
	)
	if err != nil {
		return nil, wrap("post get", err)
	}
	post.User = &user

	pictures, err := r.pictures(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Pictures = pictures
	return &post, nil
}

// List — курсорная пагинация: отдаём посты старше before, свежие первыми.
func (r *PostRepository) List(ctx context.Context, before *time.Time, limit int, userID *int64) ([]models.Post, error) {
	const q = `
		SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''),
		       p.aspect_ratio, p.views, p.downloads, p.created_at,
		       u.id, u.username, COALESCE(u.name, ''), u.avatar_id
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE ($1::timestamptz IS NULL OR p.created_at < $1)
		  AND ($3::bigint IS NULL OR p.user_id = $3)
		ORDER BY p.created_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, q, before, limit, userID)
	if err != nil {
		return nil, wrap("post list", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var user models.User
		if err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Description,
			&post.AspectRatio, &post.Views, &post.Downloads, &post.CreatedAt,
			&user.ID, &user.Username, &user.Name, &user.AvatarID,
		); err != nil {
			return nil, wrap("post list scan", err)
		}
		post.User = &user
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("post list rows", err)
	}

	for i := range posts {
		pictures, err := r.pictures(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Pictures = pictures
	}
	return posts, nil
}

func (r *PostRepository) pictures(ctx context.Context, postID int64) ([]models.Picture, error) {
	const q = `
		SELECT id, post_id, format, size, width, height
		FROM pictures
		WHERE post_id = $1
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, wrap("pictures list", err)
	}
	defer rows.Close()

	var pictures []models.Picture
	for rows.Next() {
		var p models.Picture
		if err := rows.Scan(&p.ID, &p.PostID, &p.Format, &p.Size, &p.Width, &p.Height); err != nil {
			return nil, wrap("pictures scan", err)
		}
		pictures = append(pictures, p)
	}
	return pictures, wrap("pictures rows", rows.Err())
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return wrap("post delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap("post delete", sql.ErrNoRows)
	}
	return nil
}

func (r *PostRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	return wrap("post views", err)
}

func (r *PostRepository) IncrementDownloads(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE posts SET downloads = downloads + 1 WHERE id = $1`, id)
	return wrap("post downloads", err)
}

func (r *PostRepository) AddBookmark(ctx context.Context, userID, postID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, post_id) VALUES ($1, $2)`, userID, postID,
	)
	return wrap("bookmark add", err)
}

func (r *PostRepository) RemoveBookmark(ctx context.Context, userID, postID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`, userID, postID,
	)
	return wrap("bookmark remove", err)
}

func (r *PostRepository) ListBookmarks(ctx context.Context, userID int64) ([]models.Post, error) {
	const q = `
		SELECT p.id, p.user_id, p.title, COALESCE(p.description, ''),
		       p.aspect_ratio, p.views, p.downloads, p.created_at,
		       u.id, u.username, COALESCE(u.name, ''), u.avatar_id
		FROM bookmarks b
		JOIN posts p ON p.id = b.post_id
		JOIN users u ON u.id = p.user_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, wrap("bookmark list", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var user models.User
		if err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Description,
			&post.AspectRatio, &post.Views, &post.Downloads, &post.CreatedAt,
			&user.ID, &user.Username, &user.Name, &user.AvatarID,
		); err != nil {
			return nil, wrap("bookmark list scan", err)
		}
		post.User = &user
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("bookmark list rows", err)
	}

	for i := range posts {
		pictures, err := r.pictures(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Pictures = pictures
	}
	return posts, nil
}
