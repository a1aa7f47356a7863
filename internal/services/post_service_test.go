package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givemepillow/internal/gallery"
	"givemepillow/internal/models"
	"givemepillow/internal/repositories"
)

type fakePostStore struct {
	posts     map[int64]*models.Post
	nextID    int64
	addErr    error
	bookmarks map[int64]map[int64]struct{}
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts:     make(map[int64]*models.Post),
		nextID:    1,
		bookmarks: make(map[int64]map[int64]struct{}),
	}
}

func (f *fakePostStore) AddWithPictures(_ context.Context, post *models.Post) error {
	if f.addErr != nil {
		return f.addErr
	}
	post.ID = f.nextID
	post.CreatedAt = time.Now()
	f.nextID++
	clone := *post
	f.posts[post.ID] = &clone
	return nil
}

func (f *fakePostStore) Get(_ context.Context, id int64) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *post
	return &clone, nil
}

func (f *fakePostStore) List(_ context.Context, _ *time.Time, _ int, _ *int64) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostStore) IncrementViews(_ context.Context, id int64) error {
	if post, ok := f.posts[id]; ok {
		post.Views++
	}
	return nil
}

func (f *fakePostStore) AddBookmark(_ context.Context, userID, postID int64) error {
	if f.bookmarks[userID] == nil {
		f.bookmarks[userID] = make(map[int64]struct{})
	}
	f.bookmarks[userID][postID] = struct{}{}
	return nil
}

func (f *fakePostStore) RemoveBookmark(_ context.Context, userID, postID int64) error {
	delete(f.bookmarks[userID], postID)
	return nil
}

func (f *fakePostStore) ListBookmarks(_ context.Context, _ int64) ([]models.Post, error) {
	return nil, nil
}

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestPostService(t *testing.T) (*PostService, *fakePostStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := gallery.NewStore(root)
	require.NoError(t, err)
	posts := newFakePostStore()
	return NewPostService(posts, store, gallery.NewPipeline(store)), posts, root
}

func filesUnder(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func TestPublish(t *testing.T) {
	svc, posts, root := newTestPostService(t)

	post, err := svc.Publish(context.Background(), NewPost{
		UserID:      1,
		Title:       "sunset",
		AspectRatio: 1.5,
		Pictures: []NewPicture{
			{Data: encodeTestJPEG(t, 600, 400), Width: 600, Height: 400},
			{Data: encodeTestJPEG(t, 300, 300), Width: 300, Height: 300, KeepOriginal: true},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.NotZero(t, post.ID)
	require.Len(t, post.Pictures, 2)
	assert.Len(t, posts.posts, 1)

	// обе картинки в двух вариантах
	assert.Len(t, filesUnder(t, root), 4)
}

func TestPublishCleansUpOnStoreFailure(t *testing.T) {
	svc, posts, root := newTestPostService(t)
	posts.addErr = errors.New("db down")

	_, err := svc.Publish(context.Background(), NewPost{
		UserID:   1,
		Title:    "doomed",
		Pictures: []NewPicture{{Data: encodeTestJPEG(t, 200, 200), Width: 200, Height: 200}},
	})
	require.Error(t, err)
	assert.Empty(t, filesUnder(t, root), "files must not outlive a failed publish")
}

func TestPublishCleansUpOnBadPicture(t *testing.T) {
	svc, posts, root := newTestPostService(t)

	// первая картинка валидна, вторая — мусор: откатываются обе
	_, err := svc.Publish(context.Background(), NewPost{
		UserID: 1,
		Pictures: []NewPicture{
			{Data: encodeTestJPEG(t, 200, 200), Width: 200, Height: 200},
			{Data: []byte("garbage"), Width: 10, Height: 10},
		},
	})
	require.ErrorIs(t, err, gallery.ErrDecode)
	assert.Empty(t, posts.posts, "nothing must be persisted")
	assert.Empty(t, filesUnder(t, root))
}

func TestGetCountsView(t *testing.T) {
	svc, posts, _ := newTestPostService(t)
	posts.posts[1] = &models.Post{ID: 1, UserID: 2, Title: "t"}

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, int64(1), posts.posts[1].Views)
}

func TestDeleteOwnPostRemovesFiles(t *testing.T) {
	svc, posts, root := newTestPostService(t)

	post, err := svc.Publish(context.Background(), NewPost{
		UserID:   5,
		Pictures: []NewPicture{{Data: encodeTestJPEG(t, 200, 200), Width: 200, Height: 200}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), post.ID, 5))
	assert.Empty(t, posts.posts)
	assert.Empty(t, filesUnder(t, root))
}

func TestDeleteForeignPostForbidden(t *testing.T) {
	svc, posts, _ := newTestPostService(t)
	posts.posts[1] = &models.Post{ID: 1, UserID: 2}

	err := svc.Delete(context.Background(), 1, 3)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, posts.posts, 1)
}

func TestBookmarkMissingPost(t *testing.T) {
	svc, posts, _ := newTestPostService(t)

	err := svc.Bookmark(context.Background(), 1, 99)
	require.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Empty(t, posts.bookmarks)
}
