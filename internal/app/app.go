package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"givemepillow/internal/config"
	"givemepillow/internal/gallery"
	"givemepillow/internal/handlers"
	"givemepillow/internal/realtime"
	"givemepillow/internal/repositories"
	"givemepillow/internal/routes"
	"givemepillow/internal/security"
	"givemepillow/internal/services"
)

// Run собирает все зависимости явно: конфиг приходит параметром и дальше
// раздаётся по конструкторам, без глобальных синглтонов.
func Run(cfg *config.Config) error {
	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[app] close database: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// === Gallery ===
	pictureStore, err := gallery.NewStore(filepath.Join(cfg.Files.RootDir, "pictures"))
	if err != nil {
		return err
	}
	avatarStore, err := gallery.NewStore(filepath.Join(cfg.Files.RootDir, "avatars"))
	if err != nil {
		return err
	}
	picturePipeline := gallery.NewPipeline(pictureStore)
	avatarPipeline := gallery.NewPipeline(avatarStore)

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	pictureRepo := repositories.NewPictureRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	verifyCodeRepo := repositories.NewVerifyCodeRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	verifyService := services.NewVerifyService(verifyCodeRepo, emailService)
	telegramService := services.NewTelegramService(cfg.Telegram.BotToken)
	userService := services.NewUserService(userRepo, pictureStore, avatarStore, avatarPipeline)
	postService := services.NewPostService(postRepo, pictureStore, picturePipeline)

	tokens := security.NewManager(cfg.JWT.Secret)
	hub := realtime.NewDiscussionHub()

	// фоновая зачистка протухших кодов: основной путь удаления — Confirm,
	// janitor подбирает коды, которые так и не подтвердили
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := verifyCodeRepo.DeleteExpired(context.Background(), time.Now())
			if err != nil {
				log.Printf("[app][janitor] delete expired codes: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[app][janitor] removed %d expired codes", n)
			}
		}
	}()

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(
		verifyService,
		userService,
		telegramService,
		tokens,
		time.Duration(cfg.JWT.SessionMaxAge)*time.Second,
		time.Duration(cfg.JWT.SignupMaxAge)*time.Second,
	)
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	pictureHandler := handlers.NewPictureHandler(pictureRepo, postRepo, pictureStore, avatarStore)
	discussionHandler := handlers.NewDiscussionHandler(commentRepo, userService, hub)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	routes.SetupRoutes(
		router,
		tokens,
		authHandler,
		userHandler,
		postHandler,
		pictureHandler,
		discussionHandler,
	)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[app] listening on %s", listenAddr)
	return router.Run(listenAddr)
}

// corsMiddleware отражает Origin запроса: сессионная cookie с SameSite=None
// уходит только в credentialed-запросах, а те несовместимы с "*".
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
