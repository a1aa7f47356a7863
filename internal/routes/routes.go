package routes

import (
	"github.com/gin-gonic/gin"

	"givemepillow/internal/handlers"
	"givemepillow/internal/middleware"
	"givemepillow/internal/security"
)

func SetupRoutes(
	r *gin.Engine,
	tokens *security.Manager,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	postHandler *handlers.PostHandler,
	pictureHandler *handlers.PictureHandler,
	discussionHandler *handlers.DiscussionHandler,
) *gin.Engine {

	// ---- public
	r.POST("/authorization/email", authHandler.SignInEmail)
	r.POST("/authorization/code", authHandler.SignInCode)
	r.POST("/authorization/telegram", authHandler.SignInTelegram)
	r.POST("/logout", authHandler.Logout)

	// раздача файлов открыта: пути не угадываются, id случайные
	r.GET("/pictures/optimized/:user_id/:picture_id", pictureHandler.GetOptimized)
	r.GET("/pictures/original/:user_id/:picture_id", pictureHandler.GetOriginal)
	r.GET("/avatars/:source/:user_id/:avatar_id", pictureHandler.GetAvatar)

	// ---- authenticated
	authorized := r.Group("", middleware.Auth(tokens))

	// единственный эндпоинт, принимающий signup-токен
	authorized.POST("/signup", middleware.RequireScope(security.ScopeSignup), authHandler.SignUp)
	// доступен и при регистрации, и в полной сессии
	authorized.GET("/usernames/available", authHandler.UsernameAvailable)

	session := authorized.Group("", middleware.RequireScope(security.ScopePrimaryUser))
	{
		session.GET("/users/me", userHandler.Me)
		session.PATCH("/users/me", userHandler.UpdateMe)
		session.DELETE("/users/me", userHandler.DeleteMe)
		session.PUT("/users/me/avatar", userHandler.SetAvatar)
		session.GET("/users/me/bookmarks", postHandler.Bookmarks)
		session.GET("/users/:id", userHandler.GetByID)

		session.POST("/posts", postHandler.Create)
		session.GET("/posts", postHandler.List)
		session.GET("/posts/:id", postHandler.GetByID)
		session.DELETE("/posts/:id", postHandler.Delete)
		session.POST("/posts/:id/bookmark", postHandler.Bookmark)
		session.DELETE("/posts/:id/bookmark", postHandler.Unbookmark)

		session.GET("/discussions/:post_id/messages", discussionHandler.Messages)
		session.GET("/discussions/:post_id", discussionHandler.Join)
	}

	return r
}
