package security

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName — единственная сессионная cookie приложения.
const CookieName = "iss_access_token"

// SetCookie кладёт токен в HttpOnly cookie; max-age совпадает со сроком
// жизни токена.
func SetCookie(c *gin.Context, token string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(CookieName, token, int(maxAge.Seconds()), "/", "", true, true)
}

// ClearCookie сбрасывает сессию истёкшей cookie (logout, удаление аккаунта).
func ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(CookieName, "", -1, "/", "", true, true)
}
