// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Перед разбором подхватывается .env (если он есть) через godotenv.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Способы хранения ID лог-канала.
const (
	LogChannelStorePostgres = "postgres"
	LogChannelStoreFile     = "file"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Пользователи, которым !loghere и !stoplogging разрешены в любом модерируемом чате.
	// Администраторы самого чата могут это и без списка.
	AdminIDsRaw string  `envconfig:"ADMIN_IDS"`
	AdminIDs    []int64 `envconfig:"-"` // заполним вручную
	// Чаты, которые модерируем. Пусто = любые группы, куда добавлен бот.
	ModeratedChatIDsRaw string  `envconfig:"MODERATED_CHAT_IDS"`
	ModeratedChatIDs    []int64 `envconfig:"-"`

	// --- Database ---
	// Дефолт "postgres" (имя сервиса в docker-compose), для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"antiscam_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Таймаут одного сетевого действия (кик, удаление, отправка)
	ActionTimeout time.Duration `envconfig:"ACTION_TIMEOUT" default:"10s"`

	// --- Scoring ---
	KeywordsFile            string  `envconfig:"KEYWORDS_FILE" default:"keywords.json"`
	ImageSuspiciousness     float64 `envconfig:"IMAGE_SUSPICIOUSNESS" default:"0.3"`
	SuspiciousnessThreshold float64 `envconfig:"SUSPICIOUSNESS_THRESHOLD" default:"1.0"`

	// --- Ledger ---
	ForgivenessWindow           time.Duration `envconfig:"FORGIVENESS_WINDOW" default:"120s"`
	SuspiciousMessagesThreshold int           `envconfig:"SUSPICIOUS_MESSAGES_THRESHOLD" default:"5"`
	LedgerSweepSchedule         string        `envconfig:"LEDGER_SWEEP_SCHEDULE" default:"@every 1m"`

	// --- Trust ---
	IgnoreLongtimeUsers       bool `envconfig:"IGNORE_LONGTIME_USERS" default:"true"`
	LongtimeUserThresholdDays int  `envconfig:"LONGTIME_USER_THRESHOLD_DAYS" default:"7"`

	// --- Log channel ---
	LogChannelStore string        `envconfig:"LOG_CHANNEL_STORE" default:"postgres"`
	LogChannelFile  string        `envconfig:"LOG_CHANNEL_FILE" default:"log_channel_id.txt"`
	LogChannelRate  time.Duration `envconfig:"LOG_CHANNEL_RATE" default:"1s"`
	LogChannelBurst int           `envconfig:"LOG_CHANNEL_BURST" default:"5"`

	// --- Rate Limiting (команды) ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Metrics ---
	// Адрес для /metrics. Пусто = не поднимаем.
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, есть ли пользователь в ADMIN_IDS. Пустой список — никого.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsModeratedChat проверяет, модерируется ли чат.
func (c *Config) IsModeratedChat(chatID int64) bool {
	if len(c.ModeratedChatIDs) == 0 {
		return true
	}
	for _, id := range c.ModeratedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("ACTION_TIMEOUT должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.ImageSuspiciousness < 0 {
		return fmt.Errorf("IMAGE_SUSPICIOUSNESS не может быть отрицательным")
	}
	if c.SuspiciousnessThreshold <= 0 {
		return fmt.Errorf("SUSPICIOUSNESS_THRESHOLD должен быть > 0")
	}
	if c.ForgivenessWindow <= 0 {
		return fmt.Errorf("FORGIVENESS_WINDOW должен быть > 0")
	}
	if c.SuspiciousMessagesThreshold <= 0 {
		return fmt.Errorf("SUSPICIOUS_MESSAGES_THRESHOLD должен быть > 0")
	}
	if c.LongtimeUserThresholdDays < 0 {
		return fmt.Errorf("LONGTIME_USER_THRESHOLD_DAYS не может быть отрицательным")
	}
	switch c.LogChannelStore {
	case LogChannelStorePostgres, LogChannelStoreFile:
	default:
		return fmt.Errorf("LOG_CHANNEL_STORE: неизвестное значение %q", c.LogChannelStore)
	}
	if c.LogChannelRate <= 0 || c.LogChannelBurst <= 0 {
		return fmt.Errorf("LOG_CHANNEL_RATE и LOG_CHANNEL_BURST должны быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	return nil
}

// Load читает .env и переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	// .env не обязателен: в docker переменные приходят из окружения
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	chats, err := parseInt64CSV(cfg.ModeratedChatIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("MODERATED_CHAT_IDS parse: %w", err)
	}
	cfg.ModeratedChatIDs = chats

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
