package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	KIS    KISConfig
	Naver  NaverConfig
	Signal SignalConfig

	// Decision core
	Scan ScanConfig
	Risk RiskConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	AccountNo string
	BaseURL   string
	IsVirtual bool // 모의투자 여부
}

// NaverConfig holds Naver Finance configuration (수급 데이터 폴백)
type NaverConfig struct {
	BaseURL string
}

// SignalConfig holds the external signal provider configuration
// AI 시그널 재시도 정책은 여기서 주입 (호출부 하드코딩 금지)
type SignalConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	BackoffMult float64
}

// ScanConfig holds scanner pipeline configuration
type ScanConfig struct {
	FastInterval time.Duration // Fast 스캔 주기
	DeepInterval time.Duration // Deep 스캔 주기
	AIInterval   time.Duration // AI 스캔 주기

	FastMax int // Fast 스캔 후보 상한
	DeepMax int // Deep 스캔 후보 상한
	AIMax   int // AI 스캔 후보 상한

	CacheTTL time.Duration // 보강 데이터 캐시 TTL

	MinAIScore      float64 // AI 승인 최소 점수 (0~10)
	MinAIConfidence string  // AI 승인 최소 신뢰도 (low|medium|high)
}

// RiskConfig holds risk manager configuration
type RiskConfig struct {
	InitialCapital int64 // 초기 자본 (원)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "argos"),
			User:            getEnv("DB_USER", "argos"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External APIs
		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			AccountNo: getEnv("KIS_ACCOUNT_NO", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
			IsVirtual: getEnvAsBool("KIS_IS_VIRTUAL", false),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		Signal: SignalConfig{
			BaseURL:     getEnv("SIGNAL_BASE_URL", "http://localhost:8099"),
			Timeout:     getEnvAsDuration("SIGNAL_TIMEOUT", "30s"),
			MaxRetries:  getEnvAsInt("SIGNAL_MAX_RETRIES", 3),
			BaseDelay:   getEnvAsDuration("SIGNAL_BASE_DELAY", "2s"),
			BackoffMult: getEnvAsFloat("SIGNAL_BACKOFF_MULT", 2.0),
		},

		// Decision core
		Scan: ScanConfig{
			FastInterval:    getEnvAsDuration("SCAN_FAST_INTERVAL", "10s"),
			DeepInterval:    getEnvAsDuration("SCAN_DEEP_INTERVAL", "60s"),
			AIInterval:      getEnvAsDuration("SCAN_AI_INTERVAL", "300s"),
			FastMax:         getEnvAsInt("SCAN_FAST_MAX", 50),
			DeepMax:         getEnvAsInt("SCAN_DEEP_MAX", 20),
			AIMax:           getEnvAsInt("SCAN_AI_MAX", 5),
			CacheTTL:        getEnvAsDuration("SCAN_CACHE_TTL", "300s"),
			MinAIScore:      getEnvAsFloat("SCAN_MIN_AI_SCORE", 7.0),
			MinAIConfidence: getEnv("SCAN_MIN_AI_CONFIDENCE", "medium"),
		},

		Risk: RiskConfig{
			InitialCapital: getEnvAsInt64("RISK_INITIAL_CAPITAL", 10_000_000),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
// 설정 오류는 시작 시점에만 치명적
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.FastMax <= 0 || c.Scan.DeepMax <= 0 || c.Scan.AIMax <= 0 {
		return fmt.Errorf("scan stage caps must be positive")
	}
	if c.Scan.DeepMax > c.Scan.FastMax || c.Scan.AIMax > c.Scan.DeepMax {
		return fmt.Errorf("scan stage caps must narrow: fast >= deep >= ai")
	}
	if c.Scan.MinAIScore < 0 || c.Scan.MinAIScore > 10 {
		return fmt.Errorf("SCAN_MIN_AI_SCORE must be between 0 and 10")
	}
	switch c.Scan.MinAIConfidence {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("SCAN_MIN_AI_CONFIDENCE must be one of: low, medium, high")
	}

	if c.Risk.InitialCapital <= 0 {
		return fmt.Errorf("RISK_INITIAL_CAPITAL must be positive")
	}

	if c.Signal.MaxRetries < 0 {
		return fmt.Errorf("SIGNAL_MAX_RETRIES must not be negative")
	}
	if c.Signal.BackoffMult < 1.0 {
		return fmt.Errorf("SIGNAL_BACKOFF_MULT must be >= 1.0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
