package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 运行时配置，启动时从环境变量（及 .env 文件）读取一次
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	SecretKey           string
	TokenTTL            time.Duration
	NicknameMaxAttempts int
	CacheSize           int
	TrustedProxies      []string
}

// LoadEnvFiles 依次加载 .env.<APP_ENV> 与 .env，文件不存在只记录日志
func LoadEnvFiles() {
	env := getenv("APP_ENV", "local")
	for _, name := range []string{".env." + env, ".env"} {
		if err := godotenv.Load(name); err != nil {
			log.Printf("No %s file found, using system env vars", name)
		}
	}
}

// Load 从环境变量构建配置
func Load() *Config {
	return &Config{
		Env:                 getenv("APP_ENV", "local"),
		Port:                getenv("PORT", "8080"),
		DatabaseURL:         databaseURL(),
		SecretKey:           getenv("SECRET_KEY", "secret_key_change_me"),
		TokenTTL:            time.Duration(getenvInt("TOKEN_TTL_HOURS", 24*30)) * time.Hour,
		NicknameMaxAttempts: getenvInt("NICKNAME_MAX_ATTEMPTS", 100),
		CacheSize:           getenvInt("CACHE_SIZE", 500),
		TrustedProxies:      splitList(os.Getenv("TRUSTED_PROXIES")),
	}
}

// databaseURL DATABASE_URL 优先，否则由 DB_* 拼接
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	name := getenv("DB_NAME", "campusboard")
	user := os.Getenv("DB_USERNAME")
	pass := os.Getenv("DB_PASSWORD")

	dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=disable TimeZone=UTC", host, port, name)
	if user != "" {
		dsn += " user=" + user
	}
	if pass != "" {
		dsn += " password=" + pass
	}
	return dsn
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
