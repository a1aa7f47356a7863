package gallery

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T) (*Pipeline, *Store) {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return NewPipeline(store), store
}

func storedFiles(t *testing.T, store *Store) []string {
	t.Helper()
	var files []string
	for _, root := range []string{store.originalRoot, store.optimizedRoot} {
		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}

func TestProcessResizesToLimit(t *testing.T) {
	p, store := newTestPipeline(t)
	raw := encodeJPEG(t, 2000, 1500)

	res, err := p.Process(raw, 1, ProcessOptions{Width: 2000, Height: 1500, KeepOriginal: true})
	require.NoError(t, err)

	assert.Equal(t, 1080, res.Width)
	assert.Equal(t, 810, res.Height)
	assert.Equal(t, "jpeg", res.Format)

	info, err := os.Stat(store.Path(Optimized, 1, res.ID))
	require.NoError(t, err)
	assert.Equal(t, info.Size(), res.Size, "size must reflect the file on disk")
}

func TestProcessNeverUpscales(t *testing.T) {
	p, _ := newTestPipeline(t)
	raw := encodeJPEG(t, 640, 480)

	res, err := p.Process(raw, 1, ProcessOptions{Width: 640, Height: 480})
	require.NoError(t, err)

	assert.Equal(t, 640, res.Width)
	assert.Equal(t, 480, res.Height)
}

func TestProcessKeepOriginalVerbatim(t *testing.T) {
	p, store := newTestPipeline(t)
	raw := encodePNG(t, 300, 200)

	res, err := p.Process(raw, 9, ProcessOptions{Width: 300, Height: 200, KeepOriginal: true})
	require.NoError(t, err)

	// оригинал сохраняется байт-в-байт, без перекодирования
	got, err := os.ReadFile(store.Path(Original, 9, res.ID))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, "png", res.Format)
}

func TestProcessHardLinkWhenOriginalDropped(t *testing.T) {
	p, store := newTestPipeline(t)
	raw := encodeJPEG(t, 500, 500)

	res, err := p.Process(raw, 2, ProcessOptions{Width: 500, Height: 500})
	require.NoError(t, err)

	original, err := os.ReadFile(store.Path(Original, 2, res.ID))
	require.NoError(t, err)
	optimized, err := os.ReadFile(store.Path(Optimized, 2, res.ID))
	require.NoError(t, err)

	// оба пути разрешаются и содержимое идентично (жёсткая ссылка)
	assert.Equal(t, optimized, original)
	assert.Equal(t, "jpeg", res.Format)
}

func TestProcessRotationSwapsCanvas(t *testing.T) {
	p, _ := newTestPipeline(t)
	raw := encodeJPEG(t, 400, 200)

	// после поворота на 90 холст 200x400, такой кроп валиден
	res, err := p.Process(raw, 4, ProcessOptions{Rotate: 90, Width: 200, Height: 400})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 400, res.Height)

	// а кроп по старым осям — уже нет
	_, err = p.Process(raw, 4, ProcessOptions{Rotate: 90, Width: 400, Height: 200})
	require.ErrorIs(t, err, ErrInvalidRegion)
}

func TestProcessDecodeError(t *testing.T) {
	p, store := newTestPipeline(t)

	_, err := p.Process([]byte("definitely not an image"), 1, ProcessOptions{Width: 10, Height: 10})
	require.ErrorIs(t, err, ErrDecode)
	assert.Empty(t, storedFiles(t, store), "no files may survive a failed process")

	// обрезанный jpeg тоже не должен пройти
	raw := encodeJPEG(t, 100, 100)
	_, err = p.Process(raw[:20], 1, ProcessOptions{Width: 10, Height: 10})
	require.ErrorIs(t, err, ErrDecode)
}

func TestProcessInvalidRegion(t *testing.T) {
	p, store := newTestPipeline(t)
	raw := encodeJPEG(t, 100, 100)

	tests := []struct {
		name string
		opts ProcessOptions
	}{
		{"out of bounds", ProcessOptions{X: 50, Y: 50, Width: 100, Height: 100}},
		{"zero size", ProcessOptions{X: 0, Y: 0, Width: 0, Height: 0}},
		{"negative origin", ProcessOptions{X: -10, Y: 0, Width: 50, Height: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(raw, 1, tt.opts)
			require.ErrorIs(t, err, ErrInvalidRegion)
		})
	}
	assert.Empty(t, storedFiles(t, store))
}

func TestProcessCropInsideCanvas(t *testing.T) {
	p, _ := newTestPipeline(t)
	raw := encodeJPEG(t, 800, 600)

	res, err := p.Process(raw, 1, ProcessOptions{X: 100, Y: 100, Width: 400, Height: 300})
	require.NoError(t, err)
	assert.Equal(t, 400, res.Width)
	assert.Equal(t, 300, res.Height)
}

func TestProcessDeterministicForIdenticalInput(t *testing.T) {
	p, store := newTestPipeline(t)
	raw := encodeJPEG(t, 300, 300)
	opts := ProcessOptions{Width: 300, Height: 300}

	first, err := p.Process(raw, 1, opts)
	require.NoError(t, err)
	second, err := p.Process(raw, 1, opts)
	require.NoError(t, err)

	a, err := os.ReadFile(store.Path(Optimized, 1, first.ID))
	require.NoError(t, err)
	b, err := os.ReadFile(store.Path(Optimized, 1, second.ID))
	require.NoError(t, err)
	assert.Equal(t, a, b, "identical input must produce identical derivative bytes")
	assert.NotEqual(t, first.ID, second.ID, "identifiers are fresh per call")
}
