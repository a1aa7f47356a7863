package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// Ограничение по длинной стороне: уменьшаем, никогда не растягиваем.
	resolutionLimit = 1080
	// Сжатие с приоритетом размера над качеством.
	jpegQuality = 70
)

var (
	ErrDecode        = errors.New("gallery: unsupported or corrupt image")
	ErrInvalidRegion = errors.New("gallery: crop box outside image bounds")
	ErrStorage       = errors.New("gallery: storage failure")
)

// ProcessOptions — геометрия, присланная клиентом вместе с файлом.
type ProcessOptions struct {
	// Rotate — визуальный поворот, выполненный пользователем в превью.
	// Сохранённое изображение должно выглядеть ровно, поэтому при обработке
	// применяется поворот на минус этот угол. Инверсия знака — контракт
	// с клиентом, не ошибка.
	Rotate int
	X      int
	Y      int
	Width  int
	Height int
	// KeepOriginal — сохранить исходные байты дословно в слот оригинала.
	// Иначе оптимизированный файл линкуется в оба слота.
	KeepOriginal bool
}

// Result — вычисленные метаданные сохранённого изображения. Size — реальный
// размер оптимизированного файла на диске, не буфера в памяти.
type Result struct {
	ID     string
	Format string
	Width  int
	Height int
	Size   int64
}

// Pipeline превращает сырые байты загрузки в пару файлов хранилища и
// метаданные. Частичная запись никогда не переживает ошибку: всё, что
// успели записать, удаляется перед возвратом.
type Pipeline struct {
	store *Store
}

func NewPipeline(store *Store) *Pipeline {
	return &Pipeline{store: store}
}

func (p *Pipeline) Process(raw []byte, ownerID int64, opts ProcessOptions) (*Result, error) {
	src, srcFormat, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img := transform(src, opts.Rotate)

	crop := image.Rect(opts.X, opts.Y, opts.X+opts.Width, opts.Y+opts.Height)
	if opts.Width <= 0 || opts.Height <= 0 || !crop.In(img.Bounds()) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrInvalidRegion, crop, img.Bounds())
	}
	img = imaging.Crop(img, crop)

	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > resolutionLimit || h > resolutionLimit {
		img = imaging.Fit(img, resolutionLimit, resolutionLimit, imaging.Lanczos)
	}

	if err := p.store.EnsureOwner(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	id := uuid.NewString()
	if err := p.writeOptimized(ownerID, id, img); err != nil {
		return nil, err
	}

	format := "jpeg"
	if opts.KeepOriginal {
		format = srcFormat
		if err := os.WriteFile(p.store.Path(Original, ownerID, id), raw, 0o644); err != nil {
			_ = p.store.Delete(ownerID, id)
			return nil, fmt.Errorf("%w: write original: %v", ErrStorage, err)
		}
	} else if err := p.store.linkOriginal(ownerID, id); err != nil {
		_ = p.store.Delete(ownerID, id)
		return nil, fmt.Errorf("%w: link original: %v", ErrStorage, err)
	}

	info, err := os.Stat(p.store.Path(Optimized, ownerID, id))
	if err != nil {
		_ = p.store.Delete(ownerID, id)
		return nil, fmt.Errorf("%w: stat optimized: %v", ErrStorage, err)
	}

	return &Result{
		ID:     id,
		Format: format,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Size:   info.Size(),
	}, nil
}

func (p *Pipeline) writeOptimized(ownerID int64, id string, img image.Image) error {
	f, err := os.Create(p.store.Path(Optimized, ownerID, id))
	if err != nil {
		return fmt.Errorf("%w: create optimized: %v", ErrStorage, err)
	}
	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		f.Close()
		_ = p.store.Delete(ownerID, id)
		return fmt.Errorf("%w: encode optimized: %v", ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		_ = p.store.Delete(ownerID, id)
		return fmt.Errorf("%w: close optimized: %v", ErrStorage, err)
	}
	return nil
}

// transform — поворот на минус клиентский угол с расширением холста и
// приведение к непрозрачному трёхканальному изображению. Кроп и ресайз
// дальше работают по уже декодированным пикселям.
func transform(src image.Image, rotate int) *image.NRGBA {
	img := imaging.Rotate(src, float64(-rotate), color.White)
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)
}
