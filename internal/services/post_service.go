package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"givemepillow/internal/gallery"
	"givemepillow/internal/models"
)

// ErrForbidden — операция над чужим ресурсом.
var ErrForbidden = errors.New("services: forbidden")

type PostStore interface {
	AddWithPictures(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, before *time.Time, limit int, userID *int64) ([]models.Post, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	AddBookmark(ctx context.Context, userID, postID int64) error
	RemoveBookmark(ctx context.Context, userID, postID int64) error
	ListBookmarks(ctx context.Context, userID int64) ([]models.Post, error)
}

// NewPicture — одна загружаемая картинка с клиентской геометрией.
type NewPicture struct {
	Data         []byte
	Rotate       int
	X            int
	Y            int
	Width        int
	Height       int
	KeepOriginal bool
}

type NewPost struct {
	UserID      int64
	Title       string
	Description string
	AspectRatio float64
	Pictures    []NewPicture
}

// PostService — публикация: конвейер картинок плюс транзакционная запись
// поста. Строка Picture появляется в БД только после успешной записи обоих
// файлов; при сбое коммита файлы удаляются, чтобы не плодить сирот.
type PostService struct {
	posts    PostStore
	store    *gallery.Store
	pipeline *gallery.Pipeline
}

func NewPostService(posts PostStore, store *gallery.Store, pipeline *gallery.Pipeline) *PostService {
	return &PostService{posts: posts, store: store, pipeline: pipeline}
}

func (s *PostService) Publish(ctx context.Context, np NewPost) (*models.Post, error) {
	// Отключившийся клиент не должен оставить полузаписанное состояние:
	// дорабатываем оба файла и строку БД до конца.
	ctx = context.WithoutCancel(ctx)

	post := &models.Post{
		UserID:      np.UserID,
		Title:       np.Title,
		Description: np.Description,
		AspectRatio: np.AspectRatio,
	}

	var saved []string
	cleanup := func() {
		for _, id := range saved {
			if err := s.store.Delete(np.UserID, id); err != nil {
				log.Printf("[posts][publish] cleanup %s: %v", id, err)
			}
		}
	}

	for _, p := range np.Pictures {
		res, err := s.pipeline.Process(p.Data, np.UserID, gallery.ProcessOptions{
			Rotate:       p.Rotate,
			X:            p.X,
			Y:            p.Y,
			Width:        p.Width,
			Height:       p.Height,
			KeepOriginal: p.KeepOriginal,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("publish: %w", err)
		}
		saved = append(saved, res.ID)
		post.Pictures = append(post.Pictures, models.Picture{
			ID:     res.ID,
			Format: res.Format,
			Size:   res.Size,
			Width:  res.Width,
			Height: res.Height,
		})
	}

	if err := s.posts.AddWithPictures(ctx, post); err != nil {
		cleanup()
		return nil, fmt.Errorf("publish: %w", err)
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.posts.IncrementViews(ctx, id); err != nil {
		log.Printf("[posts][get] views increment post=%d: %v", id, err)
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, before *time.Time, limit int, userID *int64) ([]models.Post, error) {
	return s.posts.List(ctx, before, limit, userID)
}

// Delete удаляет публикацию владельца: сперва файлы, затем строки.
func (s *PostService) Delete(ctx context.Context, postID, requesterID int64) error {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return ErrForbidden
	}

	ctx = context.WithoutCancel(ctx)
	for _, pic := range post.Pictures {
		if err := s.store.Delete(post.UserID, pic.ID); err != nil {
			return fmt.Errorf("post delete: %w", err)
		}
	}
	return s.posts.Delete(ctx, postID)
}

func (s *PostService) Bookmark(ctx context.Context, userID, postID int64) error {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return err
	}
	return s.posts.AddBookmark(ctx, userID, postID)
}

func (s *PostService) Unbookmark(ctx context.Context, userID, postID int64) error {
	return s.posts.RemoveBookmark(ctx, userID, postID)
}

func (s *PostService) Bookmarks(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.posts.ListBookmarks(ctx, userID)
}
