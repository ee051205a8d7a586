package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config - вся конфигурация приложения. Загружается из переменных окружения
// (и .env файла при наличии) через cleanenv.
type Config struct {
	AppEnv   string `env:"APP_ENV" env-default:"development"`
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	LLM      LLMConfig
	SD       SDConfig
	Ollama   OllamaConfig
	Vector   VectorStoreConfig
	Search   SearchConfig
	Chat     ChatConfig
	Assets   AssetsConfig
}

// ServerConfig - настройки HTTP сервера.
type ServerConfig struct {
	Port                int      `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeoutSeconds  int      `env:"SERVER_READ_TIMEOUT" env-default:"15"`
	WriteTimeoutSeconds int      `env:"SERVER_WRITE_TIMEOUT" env-default:"120"`
	IdleTimeoutSeconds  int      `env:"SERVER_IDLE_TIMEOUT" env-default:"60"`
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

// LoggerConfig - настройки zap логгера.
type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"console"`
}

// DatabaseConfig - настройки PostgreSQL.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST" env-default:"localhost"`
	Port               int    `env:"DB_PORT" env-default:"5432"`
	User               string `env:"DB_USER" env-default:"postgres"`
	Password           string `env:"DB_PASSWORD" env-default:"postgres"`
	Name               string `env:"DB_NAME" env-default:"companion"`
	SSLMode            string `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConnections     int    `env:"DB_MAX_CONNECTIONS" env-default:"10"`
	MaxConnIdleMinutes int    `env:"DB_MAX_IDLE_MINUTES" env-default:"5"`
}

// DSN возвращает строку подключения для PostgreSQL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig - настройки Redis (кэш актуальных ассетов).
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" env-default:""`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	AssetTTL time.Duration `env:"REDIS_ASSET_TTL" env-default:"24h"`
}

// RabbitMQConfig - настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL" env-default:""`
	Exchange string `env:"RABBITMQ_EVENTS_EXCHANGE" env-default:"companion.events"`
}

// LLMConfig - локальный OpenAI-совместимый сервер генерации текста.
type LLMConfig struct {
	BaseURL     string  `env:"LLM_BASE_URL" env-default:"http://localhost:5000/v1"`
	APIKey      string  `env:"LLM_API_KEY" env-default:"local"`
	Model       string  `env:"LLM_MODEL" env-default:"local-model"`
	Temperature float32 `env:"LLM_TEMPERATURE" env-default:"0.8"`
	MaxTokens   int     `env:"LLM_MAX_TOKENS" env-default:"512"`
	TimeoutSec  int     `env:"LLM_TIMEOUT_SEC" env-default:"300"`
}

// SDConfig - локальный Stable Diffusion WebUI сервер.
type SDConfig struct {
	BaseURL        string  `env:"SD_BASE_URL" env-default:"http://localhost:7860"`
	TimeoutSec     int     `env:"SD_TIMEOUT_SEC" env-default:"120"`
	Steps          int     `env:"SD_STEPS" env-default:"30"`
	CFGScale       float64 `env:"SD_CFG_SCALE" env-default:"7.0"`
	Sampler        string  `env:"SD_SAMPLER" env-default:"DPM++ 2M Karras"`
	NegativePrompt string  `env:"SD_NEGATIVE_PROMPT" env-default:"lowres, bad anatomy, bad hands, watermark, signature"`
}

// OllamaConfig - локальный сервер эмбеддингов.
type OllamaConfig struct {
	Host           string `env:"OLLAMA_HOST" env-default:"http://localhost:11434"`
	EmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" env-default:"nomic-embed-text"`
}

// VectorStoreConfig - локальное векторное хранилище (semantic store).
type VectorStoreConfig struct {
	BaseURL          string `env:"VECTOR_STORE_URL" env-default:"http://localhost:6333"`
	CollectionPrefix string `env:"VECTOR_COLLECTION_PREFIX" env-default:"memories"`
	TimeoutSec       int    `env:"VECTOR_STORE_TIMEOUT_SEC" env-default:"15"`
}

// SearchConfig - локальный поисковый прокси.
type SearchConfig struct {
	BaseURL    string `env:"SEARCH_BASE_URL" env-default:"http://localhost:8888"`
	TimeoutSec int    `env:"SEARCH_TIMEOUT_SEC" env-default:"15"`
	MaxResults int    `env:"SEARCH_MAX_RESULTS" env-default:"5"`
	Enabled    bool   `env:"SEARCH_ENABLED" env-default:"true"`
}

// ChatConfig - параметры сборки контекста диалога.
type ChatConfig struct {
	HistoryTokenBudget int  `env:"CHAT_HISTORY_TOKEN_BUDGET" env-default:"3000"`
	MemoryLimit        int  `env:"CHAT_MEMORY_LIMIT" env-default:"5"`
	MemoryEnabled      bool `env:"CHAT_MEMORY_ENABLED" env-default:"true"`
}

// AssetsConfig - параметры генерации и хранения ассетов сцен.
type AssetsConfig struct {
	StyleSuffix   string `env:"ASSET_PROMPT_STYLE_SUFFIX" env-default:", anime style, detailed anime art, vibrant colors, clean linework, cohesive color grading"`
	StoragePath   string `env:"ASSET_STORAGE_PATH" env-default:"./data/images"`
	PublicBaseURL string `env:"ASSET_PUBLIC_BASE_URL" env-default:"http://localhost:8080/static/images"`
}

// Load загружает конфигурацию из окружения; .env подхватывается при наличии.
func Load() (*Config, error) {
	// Ошибку отсутствия .env игнорируем: в production файла обычно нет.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}
