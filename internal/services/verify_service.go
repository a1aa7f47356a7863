package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"givemepillow/internal/models"
	"givemepillow/internal/repositories"
)

const (
	codeTTL      = 120 * time.Second
	codeAttempts = 5
)

// VerifyCodeStore — операции хранилища, нужные автомату кодов.
type VerifyCodeStore interface {
	Upsert(ctx context.Context, vc *models.VerifyCode) error
	Get(ctx context.Context, email string) (*models.VerifyCode, error)
	DecrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

// Mailer — внешний почтовый коллаборатор.
type Mailer interface {
	SendVerificationCode(email, code string) error
}

// VerifyService — одноразовые коды: выдача, подтверждение, истечение,
// ограниченное число попыток. Любой терминальный исход (совпадение,
// истечение, исчерпание попыток) удаляет запись.
type VerifyService struct {
	codes  VerifyCodeStore
	mailer Mailer
}

func NewVerifyService(codes VerifyCodeStore, mailer Mailer) *VerifyService {
	return &VerifyService{codes: codes, mailer: mailer}
}

// Issue генерирует равномерно случайный четырёхзначный код (ведущие нули
// сохраняются), перезаписывает прежний код для этого email и отправляет
// письмо. Сбой доставки не отменяет выдачу: код уже сохранён, а факт сбоя
// возвращается флагом delivered.
func (s *VerifyService) Issue(ctx context.Context, email string) (delivered bool, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return false, fmt.Errorf("verify issue: %w", err)
	}
	code := fmt.Sprintf("%04d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("verify issue: %w", err)
	}

	if err := s.codes.Upsert(ctx, &models.VerifyCode{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(codeTTL),
		Attempts:  codeAttempts,
	}); err != nil {
		return false, fmt.Errorf("verify issue: %w", err)
	}

	if err := s.mailer.SendVerificationCode(email, code); err != nil {
		log.Printf("[verify][issue] mail delivery failed email=%q: %v", email, err)
		return false, nil
	}
	return true, nil
}

// Confirm сверяет код. Ложь без ошибки — во всех случаях несовпадения:
// записи нет, код истёк, код неверный. Неверный код при остатке попыток —
// единственный нетерминальный исход.
func (s *VerifyService) Confirm(ctx context.Context, email, code string) (bool, error) {
	vc, err := s.codes.Get(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify confirm: %w", err)
	}

	if !time.Now().Before(vc.ExpiresAt) {
		// истёкший код не подлежит повтору даже с остатком попыток
		if err := s.codes.Delete(ctx, email); err != nil {
			return false, fmt.Errorf("verify confirm: %w", err)
		}
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(vc.CodeHash), []byte(code)) != nil {
		_, err := s.codes.DecrementAttempts(ctx, email)
		if errors.Is(err, repositories.ErrNotFound) {
			// попытки исчерпаны — запись сжигается
			if err := s.codes.Delete(ctx, email); err != nil {
				return false, fmt.Errorf("verify confirm: %w", err)
			}
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("verify confirm: %w", err)
		}
		return false, nil
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		return false, fmt.Errorf("verify confirm: %w", err)
	}
	return true, nil
}
