// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // API サーバーのポート番号
	GinMode string // Gin の実行モード (debug, release, test)

	// CORS 設定
	CORSAllowedOrigins string // CORS 許可オリジン（カンマ区切り）

	// ストア設定
	DatabaseURL     string // ユーザーテーブル用 PostgreSQL 接続文字列
	SessionRedisURL string // セッションストア用 Redis 接続 URL

	// 認証設定
	BcryptCost      int // パスワードハッシュのコスト係数
	SessionTTLHours int // セッションの保持時間（時間）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/expenses?sslmode=disable"),
		SessionRedisURL: getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),

		BcryptCost:      getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 12),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	// ローカル開発ではデフォルト値で動かせるようにし、本番環境では厳格にチェックする
	if c.GinMode == "release" {
		if os.Getenv("DATABASE_URL") == "" {
			return fmt.Errorf("DATABASE_URL is required in release mode")
		}
		if os.Getenv("SESSION_REDIS_URL") == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required in release mode")
		}
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
