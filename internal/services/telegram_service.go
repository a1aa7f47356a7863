package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Срок годности виджет-подписи: Telegram не датирует её дольше суток.
const loginTTL = 24 * time.Hour

var (
	ErrBadSignature = errors.New("telegram: signature mismatch")
	ErrStaleLogin   = errors.New("telegram: auth_date too old")
)

// TelegramLogin — payload виджета входа. Hash подписывает остальные поля.
type TelegramLogin struct {
	ID        int64  `json:"id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date" binding:"required"`
	Hash      string `json:"hash" binding:"required"`
}

type TelegramService struct {
	token string
	bot   *tgbotapi.BotAPI
}

// NewTelegramService поднимает бота для уведомлений. Пустой токен или
// недоступный Telegram не мешают запуску: проверка подписи работает от
// токена, уведомления просто отключаются.
func NewTelegramService(botToken string) *TelegramService {
	s := &TelegramService{token: botToken}
	if botToken == "" {
		return s
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg][init] bot unavailable, notifications disabled: %v", err)
		return s
	}
	s.bot = bot
	return s
}

// VerifyLogin байт-в-байт воспроизводит канониническую строку виджета:
// отсортированные по возрастанию строки key=value (hash исключён),
// склеенные \n, HMAC-SHA256 с ключом SHA256(bot token).
func (s *TelegramService) VerifyLogin(data TelegramLogin) error {
	if s.token == "" {
		return fmt.Errorf("telegram: not configured")
	}
	if time.Since(time.Unix(data.AuthDate, 0)) > loginTTL {
		return ErrStaleLogin
	}

	fields := map[string]string{
		"id":         strconv.FormatInt(data.ID, 10),
		"auth_date":  strconv.FormatInt(data.AuthDate, 10),
		"first_name": data.FirstName,
	}
	if data.LastName != "" {
		fields["last_name"] = data.LastName
	}
	if data.Username != "" {
		fields["username"] = data.Username
	}
	if data.PhotoURL != "" {
		fields["photo_url"] = data.PhotoURL
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := sha256.Sum256([]byte(s.token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))

	claimed, err := hex.DecodeString(data.Hash)
	if err != nil || !hmac.Equal(mac.Sum(nil), claimed) {
		return ErrBadSignature
	}
	return nil
}

// NotifySignIn шлёт уведомление о входе в привязанный чат. Сбой не
// фатален для авторизации.
func (s *TelegramService) NotifySignIn(chatID int64, username string) {
	if s.bot == nil || chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Выполнен вход в аккаунт @%s на givemepillow.ru.", username))
	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("[tg][notify] send failed chatID=%d: %v", chatID, err)
	}
}
