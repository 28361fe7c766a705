// Package main は API サーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/expenses-splitter/internal/auth"
	"github.com/yourusername/expenses-splitter/internal/config"
	"github.com/yourusername/expenses-splitter/internal/session"
	"github.com/yourusername/expenses-splitter/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Gin のモードを設定
	gin.SetMode(cfg.GinMode)

	// ユーザーストア（PostgreSQL）
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	userStore := users.NewPostgresStore(pool)

	// セッションストア（Redis、期限切れは TTL 任せ）
	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		log.Fatalf("Failed to parse SESSION_REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessionStore := session.NewRedisStore(rdb, sessionTTL)

	manager := auth.NewManager(userStore, sessionStore, auth.NewHasher(cfg.BcryptCost), sessionTTL)

	// Gin ルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// CORS ミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS 許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"X-CSRF-Token", // CSRF 保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	// 全リクエストでセッションを解決する（トークンの発行はここだけ）
	router.Use(manager.BindSession(cfg.GinMode == gin.ReleaseMode))

	// ルーティングの設定
	setupRoutes(router, manager)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "expenses-splitter-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, manager *auth.Manager) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.GET("/me", manager.Me)
			// ログイン・登録時点ではクライアントに CSRF トークンが渡っていないため検証しない
			authRoutes.POST("/login", manager.Login)
			authRoutes.POST("/register", manager.Register)
			// ログアウトは未ログインでも成功する（冪等）
			authRoutes.POST("/logout", manager.VerifyCSRF(), manager.Logout)
		}

		// 経費・精算系の API はここにぶら下げる
		protected := api.Group("")
		protected.Use(manager.RequireLogin(), manager.VerifyCSRF())
		{
		}
	}
}
