package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"time"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/handler"
	"postboard/internal/redis"
	"postboard/internal/repository"
	"postboard/internal/service"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Services
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(refreshTokenRepo, cfg)

	// Image storage is optional: without R2 credentials posts are text-only
	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		log.Printf("[WARN] Media storage disabled: %v", err)
		mediaService = nil
	}
	var imageStore service.ImageStore
	if mediaService != nil {
		imageStore = mediaService
	}

	postService := service.NewPostService(postRepo, userRepo, groupRepo, commentRepo, followRepo, imageStore)
	commentService := service.NewCommentService(commentRepo, postRepo)
	followService := service.NewFollowService(followRepo, userRepo, postRepo)

	// Sweep expired refresh tokens hourly so the table stays bounded
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			n, err := authService.CleanupExpiredTokens(context.Background())
			if err != nil {
				log.Printf("[ERROR] Refresh token sweep: err=%v", err)
				continue
			}
			if n > 0 {
				log.Printf("[TokenSweep] Deleted %d expired refresh tokens", n)
			}
		}
	}()

	// 6. Handlers
	authHandler := handler.NewAuthHandler(userService, authService, cfg)
	postHandler := handler.NewPostHandler(postService, userService, mediaService)
	profileHandler := handler.NewProfileHandler(postService)
	commentHandler := handler.NewCommentHandler(commentService)
	followHandler := handler.NewFollowHandler(followService)

	// 7. Router
	router := NewRouter(RouterConfig{
		AuthHandler:    authHandler,
		PostHandler:    postHandler,
		ProfileHandler: profileHandler,
		CommentHandler: commentHandler,
		FollowHandler:  followHandler,
		PageCache:      cache.NewPageCache(redisClient.Client),
		JWTSecret:      cfg.JWTSecret,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
