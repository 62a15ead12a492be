// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"serotonyl.ru/antiscam-bot/internal/bot"
	"serotonyl.ru/antiscam-bot/internal/bot/filters"
	"serotonyl.ru/antiscam-bot/internal/bot/middleware"
	"serotonyl.ru/antiscam-bot/internal/config"
	"serotonyl.ru/antiscam-bot/internal/db/postgres"
	"serotonyl.ru/antiscam-bot/internal/features/ledger"
	"serotonyl.ru/antiscam-bot/internal/features/logchannel"
	"serotonyl.ru/antiscam-bot/internal/features/members"
	"serotonyl.ru/antiscam-bot/internal/features/moderation"
	"serotonyl.ru/antiscam-bot/internal/features/punishment"
	"serotonyl.ru/antiscam-bot/internal/features/scoring"
	"serotonyl.ru/antiscam-bot/internal/features/trust"
	"serotonyl.ru/antiscam-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	ModLog    *logchannel.Sink
	DB        *pgxpool.Pool
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Ключевые слова: без них модерировать нечем ===
	keywords, err := scoring.LoadKeywords(cfg.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки ключевых слов: %w", err)
	}
	log.WithFields(log.Fields{
		"file":     cfg.KeywordsFile,
		"keywords": len(keywords),
	}).Info("Ключевые слова загружены")

	// === 2. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(botLogger{}))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	self, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s (ID: %d)", self.Username, self.ID)
	gateway := bot.NewGateway(botAPI)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	punishmentRepo := punishment.NewRepository(pool)
	var logStore logchannel.Store = logchannel.NewRepository(pool)
	if cfg.LogChannelStore == config.LogChannelStoreFile {
		logStore = logchannel.NewFileStore(cfg.LogChannelFile)
	}

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo)
	modLog := logchannel.NewSink(
		logStore, gateway,
		rate.NewLimiter(rate.Every(cfg.LogChannelRate), cfg.LogChannelBurst),
		cfg.ActionTimeout,
	)
	modLog.Load(ctx)

	scorer := scoring.NewScorer(keywords, cfg.ImageSuspiciousness, cfg.SuspiciousnessThreshold)
	suspicion := ledger.New(cfg.ForgivenessWindow, cfg.SuspiciousMessagesThreshold)
	executor := punishment.NewExecutor(gateway, punishmentRepo, cfg.ActionTimeout)

	controller := moderation.NewController(moderation.Deps{
		SelfID: self.ID,
		Scorer: scorer,
		Policy: trust.Policy{
			IgnoreLongtimeUsers:       cfg.IgnoreLongtimeUsers,
			LongtimeUserThresholdDays: cfg.LongtimeUserThresholdDays,
		},
		Members:       memberService,
		Ledger:        suspicion,
		Punisher:      executor,
		Deleter:       gateway,
		ModLog:        modLog,
		ActionTimeout: cfg.ActionTimeout,
	})

	// === 6. Обработчики ===
	memberHandler := members.NewHandler(memberService)
	moderationHandler := moderation.NewHandler(moderation.HandlerDeps{
		Scorer:        scorer,
		LogChannel:    modLog,
		Replier:       gateway,
		ChatAdmins:    gateway,
		IsAdmin:       cfg.IsAdmin,
		IsModerated:   cfg.IsModeratedChat,
		ActionTimeout: cfg.ActionTimeout,
	})

	// === 7. Фильтры и middleware ===
	chatFilter := filters.NewChatFilter(cfg.IsModeratedChat)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// === 8. Собираем бота ===
	b := bot.New(
		botAPI, self, cfg,
		memberService, memberHandler,
		controller, moderationHandler,
		chatFilter, rateLimiter,
	)

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg.AppTimezone, cfg.LedgerSweepSchedule, suspicion, rateLimiter)

	modLog.Logf("Logged in as @%s (ID: %d)", self.Username, self.ID)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		ModLog:    modLog,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// botLogger пробрасывает внутренние логи telego в logrus.
type botLogger struct{}

func (botLogger) Debugf(format string, args ...any) {
	log.WithField("component", "telego").Debugf(format, args...)
}

func (botLogger) Errorf(format string, args ...any) {
	log.WithField("component", "telego").Errorf(format, args...)
}
