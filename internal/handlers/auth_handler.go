package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"givemepillow/internal/middleware"
	"givemepillow/internal/repositories"
	"givemepillow/internal/security"
	"givemepillow/internal/services"
)

type AuthHandler struct {
	verify        *services.VerifyService
	users         *services.UserService
	telegram      *services.TelegramService
	tokens        *security.Manager
	sessionMaxAge time.Duration
	signupMaxAge  time.Duration
}

func NewAuthHandler(
	verify *services.VerifyService,
	users *services.UserService,
	telegram *services.TelegramService,
	tokens *security.Manager,
	sessionMaxAge, signupMaxAge time.Duration,
) *AuthHandler {
	return &AuthHandler{
		verify:        verify,
		users:         users,
		telegram:      telegram,
		tokens:        tokens,
		sessionMaxAge: sessionMaxAge,
		signupMaxAge:  signupMaxAge,
	}
}

type signInEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SignInEmail выдаёт одноразовый код и отправляет его письмом.
func (h *AuthHandler) SignInEmail(c *gin.Context) {
	var req signInEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	delivered, err := h.verify.Issue(c.Request.Context(), email)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent", "delivered": delivered})
}

type signInCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=4"`
}

// SignInCode сверяет код. Существующий пользователь получает полную
// сессию; новый — короткий signup-токен и 404, сигнал клиенту показать
// форму регистрации.
func (h *AuthHandler) SignInCode(c *gin.Context) {
	var req signInCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ok, err := h.verify.Confirm(c.Request.Context(), email, req.Code)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "code does not match"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		abortWithError(c, err)
		return
	}

	if user != nil {
		if h.startSession(c, user.ID) {
			c.JSON(http.StatusOK, user)
		}
		return
	}

	token, err := h.tokens.Issue(security.TokenParams{
		Scopes: []security.Scope{security.ScopeSignup},
		MaxAge: h.signupMaxAge,
		Email:  email,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	security.SetCookie(c, token, h.signupMaxAge)
	c.JSON(http.StatusNotFound, gin.H{"message": "new user"})
}

// SignInTelegram — вход через виджет Telegram: проверка подписи payload,
// дальше та же развилка существующий/новый.
func (h *AuthHandler) SignInTelegram(c *gin.Context) {
	var req services.TelegramLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if err := h.telegram.VerifyLogin(req); err != nil {
		if errors.Is(err, services.ErrBadSignature) || errors.Is(err, services.ErrStaleLogin) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "telegram signature rejected"})
			return
		}
		abortWithError(c, err)
		return
	}

	user, err := h.users.GetByTelegramID(c.Request.Context(), req.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		abortWithError(c, err)
		return
	}

	if user != nil {
		if h.startSession(c, user.ID) {
			h.telegram.NotifySignIn(req.ID, user.Username)
			c.JSON(http.StatusOK, user)
		}
		return
	}

	token, err := h.tokens.Issue(security.TokenParams{
		Scopes:     []security.Scope{security.ScopeSignup},
		MaxAge:     h.signupMaxAge,
		TelegramID: req.ID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	security.SetCookie(c, token, h.signupMaxAge)
	c.JSON(http.StatusNotFound, gin.H{"message": "new user"})
}

type signUpRequest struct {
	Username string `json:"username" binding:"required,min=3,max=25"`
	Name     string `json:"name" binding:"max=50"`
}

// SignUp завершает регистрацию. Доступен только с signup-токеном,
// идентичность берётся из claims.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	claims := middleware.Claims(c)
	var telegramID *int64
	if claims.TelegramID != 0 {
		id := claims.TelegramID
		telegramID = &id
	}

	user, err := h.users.Signup(c.Request.Context(), req.Username, req.Name, claims.Email, telegramID)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "username or email already taken"})
			return
		}
		abortWithError(c, err)
		return
	}

	if h.startSession(c, user.ID) {
		c.JSON(http.StatusOK, user)
	}
}

// Logout сбрасывает cookie истёкшим значением.
func (h *AuthHandler) Logout(c *gin.Context) {
	security.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) UsernameAvailable(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username is required"})
		return
	}
	available, err := h.users.IsUsernameAvailable(c.Request.Context(), username)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !available {
		c.JSON(http.StatusConflict, gin.H{"message": "username already taken"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "username available"})
}

func (h *AuthHandler) startSession(c *gin.Context, userID int64) bool {
	token, err := h.tokens.Issue(security.TokenParams{
		Scopes: []security.Scope{security.ScopePrimaryUser},
		MaxAge: h.sessionMaxAge,
		UserID: userID,
	})
	if err != nil {
		log.Printf("[auth][session] issue failed userID=%d: %v", userID, err)
		abortWithError(c, err)
		return false
	}
	security.SetCookie(c, token, h.sessionMaxAge)
	return true
}
