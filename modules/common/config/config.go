package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis (optional shared asset cache)
	RedisHost        string
	RedisPort        string
	RedisUsername    string
	RedisPassword    string
	RedisUseTLS      bool
	AssetCachePrefix string

	// Supabase (optional publication log)
	SupabaseURL        string
	SupabaseServiceKey string

	// Gemini API
	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	GeminiTTSModel   string
	GeminiVoice      string
	ImageAspectRatio string
	ImageFormat      string

	// Pipeline
	BakeDuration     time.Duration
	ResetDelay       time.Duration
	PreviewDwell     time.Duration
	StoryboardStrict bool

	// Cost (USD per step)
	CostText    float64
	CostImage   float64
	CostAudio   float64
	CostCompute float64

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := &Config{
		RedisHost:        getEnv("REDIS_HOST", ""),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisUsername:    getEnv("REDIS_USERNAME", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:      getBool("REDIS_USE_TLS", false),
		AssetCachePrefix: getEnv("ASSET_CACHE_PREFIX", "assets:"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiTTSModel:   getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		GeminiVoice:      getEnv("GEMINI_VOICE", "Kore"),
		ImageAspectRatio: getEnv("IMAGE_ASPECT_RATIO", "16:9"),
		ImageFormat:      getEnv("IMAGE_FORMAT", "png"),

		BakeDuration:     getDuration("BAKE_DURATION", 2*time.Second),
		ResetDelay:       getDuration("RESET_DELAY", time.Second),
		PreviewDwell:     getDuration("PREVIEW_DWELL", 3*time.Second),
		StoryboardStrict: getBool("STORYBOARD_STRICT", false),

		CostText:    getFloat("COST_TEXT", 0.05),
		CostImage:   getFloat("COST_IMAGE", 0.10),
		CostAudio:   getFloat("COST_AUDIO", 0.05),
		CostCompute: getFloat("COST_COMPUTE", 0.30),

		Port: getEnv("PORT", "8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Gemini: text=%s image=%s tts=%s voice=%s", cfg.GeminiTextModel, cfg.GeminiImageModel, cfg.GeminiTTSModel, cfg.GeminiVoice)
	log.Printf("   Pipeline: bake=%v reset=%v dwell=%v strict=%v", cfg.BakeDuration, cfg.ResetDelay, cfg.PreviewDwell, cfg.StoryboardStrict)
	log.Printf("   Cost: text=%.2f image=%.2f audio=%.2f compute=%.2f", cfg.CostText, cfg.CostImage, cfg.CostAudio, cfg.CostCompute)
	if cfg.RedisEnabled() {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	} else {
		log.Printf("   Redis: disabled (in-memory asset cache only)")
	}
	if cfg.SupabaseEnabled() {
		log.Printf("   Supabase: %s", cfg.SupabaseURL)
	}

	return cfg, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.ImageFormat != "png" && c.ImageFormat != "webp" {
		return fmt.Errorf("IMAGE_FORMAT must be png or webp, got %q", c.ImageFormat)
	}
	if c.SupabaseURL != "" && c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required when SUPABASE_URL is set")
	}
	for name, v := range map[string]float64{
		"COST_TEXT":    c.CostText,
		"COST_IMAGE":   c.CostImage,
		"COST_AUDIO":   c.CostAudio,
		"COST_COMPUTE": c.CostCompute,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// RedisEnabled - Redis 캐시 계층 사용 여부
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// SupabaseEnabled - 게시 로그 사용 여부
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != ""
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil && parsed >= 0 {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}
