package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// Variant — одна из двух физических копий изображения.
type Variant string

const (
	Original  Variant = "original"
	Optimized Variant = "optimized"
)

// Store — двухуровневое файловое хранилище: <root>/<variant>/<owner_id>/<picture_id>.
// Имена файлов — сгенерированные идентификаторы без расширения, формат
// восстанавливается из метаданных в БД.
type Store struct {
	originalRoot  string
	optimizedRoot string
}

func NewStore(rootDir string) (*Store, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("gallery root: %w", err)
	}
	s := &Store{
		originalRoot:  filepath.Join(root, string(Original)),
		optimizedRoot: filepath.Join(root, string(Optimized)),
	}
	for _, dir := range []string{s.originalRoot, s.optimizedRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("gallery mkdir %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Store) variantRoot(v Variant) string {
	if v == Original {
		return s.originalRoot
	}
	return s.optimizedRoot
}

// Path — детерминированный путь файла; существование не гарантируется.
func (s *Store) Path(v Variant, ownerID int64, pictureID string) string {
	return filepath.Join(s.variantRoot(v), strconv.FormatInt(ownerID, 10), pictureID)
}

// EnsureOwner идемпотентно создаёт каталоги владельца в обоих деревьях.
// Параллельные загрузки одного владельца могут гоняться за создание,
// поэтому create-if-absent, а не create-or-fail.
func (s *Store) EnsureOwner(ownerID int64) error {
	for _, v := range []Variant{Original, Optimized} {
		dir := filepath.Join(s.variantRoot(v), strconv.FormatInt(ownerID, 10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("gallery mkdir %s: %w", dir, err)
		}
	}
	return nil
}

// Delete удаляет обе копии изображения. Отсутствующие файлы не ошибка:
// удаление идемпотентно.
func (s *Store) Delete(ownerID int64, pictureID string) error {
	for _, v := range []Variant{Original, Optimized} {
		if err := os.Remove(s.Path(v, ownerID, pictureID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("gallery delete %s/%s: %w", v, pictureID, err)
		}
	}
	return nil
}

// DeleteOwner удаляет всё поддерево владельца (используется при удалении
// аккаунта).
func (s *Store) DeleteOwner(ownerID int64) error {
	for _, v := range []Variant{Original, Optimized} {
		dir := filepath.Join(s.variantRoot(v), strconv.FormatInt(ownerID, 10))
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("gallery delete owner %d: %w", ownerID, err)
		}
	}
	return nil
}

// linkOriginal жёстко линкует оптимизированный файл в слот оригинала:
// оба пути остаются валидными без дублирования байтов.
func (s *Store) linkOriginal(ownerID int64, pictureID string) error {
	return os.Link(s.Path(Optimized, ownerID, pictureID), s.Path(Original, ownerID, pictureID))
}
