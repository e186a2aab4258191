package bot

import (
	"context"
	"fmt"
	"time"

	"jobmarket-bot/internal/bot/handlers"
	"jobmarket-bot/internal/bot/middleware"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/config"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/storage/postgres"
	"jobmarket-bot/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Bot represents Telegram bot
type Bot struct {
	bot      *tele.Bot
	sessions *session.Registry
	store    *postgres.Store
	cache    *redis.Cache
	config   *config.Config
	logger   *zap.Logger
}

func New(
	cfg *config.Config,
	sessions *session.Registry,
	store *postgres.Store,
	cache *redis.Cache,
	logger *zap.Logger,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.TelegramToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		sessions: sessions,
		store:    store,
		cache:    cache,
		config:   cfg,
		logger:   logger,
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	logger.Info("bot initialized successfully")

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	b.bot.Use(middleware.RateLimit(b.cache, b.logger))
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Sessions: b.sessions,
		Store:    b.store,
		Cache:    b.cache,
		Config:   b.config,
		Logger:   b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/link", handlers.HandleLink(ctx))
	b.bot.Handle("/unlink", handlers.HandleUnlink(ctx))
	b.bot.Handle("/notify", handlers.HandleNotify(ctx))

	b.bot.Handle("/jobs", handlers.HandleJobs(ctx))
	b.bot.Handle("/applications", handlers.HandleApplications(ctx))
	b.bot.Handle("/saved", handlers.HandleSaved(ctx))
	b.bot.Handle("/note", handlers.HandleNote(ctx))

	b.bot.Handle("/chats", handlers.HandleChats(ctx))
	b.bot.Handle("/read", handlers.HandleRead(ctx))
	b.bot.Handle("/send", handlers.HandleSend(ctx))
	b.bot.Handle("/newchat", handlers.HandleNewChat(ctx))

	b.bot.Handle("/stats", handlers.HandleStats(ctx))
	b.bot.Handle("/users", handlers.HandleUsers(ctx))
	b.bot.Handle("/suspend", handlers.HandleSetUserStatus(ctx, models.UserSuspended))
	b.bot.Handle("/activate", handlers.HandleSetUserStatus(ctx, models.UserActive))

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered")
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()

	return nil
}

func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
