package services

import (
	"context"
	"fmt"
	"log"

	"givemepillow/internal/gallery"
	"givemepillow/internal/models"
)

type UserStore interface {
	Add(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, name, bio *string) error
	UpdateAvatar(ctx context.Context, id int64, avatarID string) (*string, error)
	Delete(ctx context.Context, id int64) error
}

// UserService — регистрация и профиль. Аватары идут через отдельное
// дерево хранилища с тем же конвейером, что и картинки постов.
type UserService struct {
	users          UserStore
	pictures       *gallery.Store
	avatars        *gallery.Store
	avatarPipeline *gallery.Pipeline
}

func NewUserService(users UserStore, pictures, avatars *gallery.Store, avatarPipeline *gallery.Pipeline) *UserService {
	return &UserService{
		users:          users,
		pictures:       pictures,
		avatars:        avatars,
		avatarPipeline: avatarPipeline,
	}
}

// Signup завершает регистрацию по signup-токену: email или telegram_id
// приходят из проверенных claims, не из тела запроса.
func (s *UserService) Signup(ctx context.Context, username, name, email string, telegramID *int64) (*models.User, error) {
	user := &models.User{
		Username:   username,
		Name:       name,
		Email:      email,
		TelegramID: telegramID,
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAvatar прогоняет загрузку через конвейер и подменяет avatar_id;
// файлы прежнего аватара удаляются после успешной записи в БД.
func (s *UserService) SetAvatar(ctx context.Context, userID int64, raw []byte, opts gallery.ProcessOptions) (*models.User, error) {
	ctx = context.WithoutCancel(ctx)

	res, err := s.avatarPipeline.Process(raw, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}

	previous, err := s.users.UpdateAvatar(ctx, userID, res.ID)
	if err != nil {
		if cleanupErr := s.avatars.Delete(userID, res.ID); cleanupErr != nil {
			log.Printf("[users][avatar] cleanup %s: %v", res.ID, cleanupErr)
		}
		return nil, err
	}
	if previous != nil {
		if err := s.avatars.Delete(userID, *previous); err != nil {
			log.Printf("[users][avatar] delete previous %s: %v", *previous, err)
		}
	}

	return s.users.Get(ctx, userID)
}

// DeleteAccount убирает пользователя вместе со всеми его файлами: строки
// каскадом в БД, затем оба поддерева хранилищ.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.pictures.DeleteOwner(userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if err := s.avatars.DeleteOwner(userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

func (s *UserService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.users.IsUsernameAvailable(ctx, username)
}

// UpdateProfile — частичное обновление: nil-поле остаётся как было.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, name, bio *string) (*models.User, error) {
	if err := s.users.UpdateProfile(ctx, id, name, bio); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, id)
}
