package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/times-table-bot/internal/config"
	"github.com/aliskhannn/times-table-bot/internal/delivery/telegram"
	"github.com/aliskhannn/times-table-bot/internal/infra/llm"
	"github.com/aliskhannn/times-table-bot/internal/infra/postgres"
	"github.com/aliskhannn/times-table-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/times-table-bot/internal/logger"
	"github.com/aliskhannn/times-table-bot/internal/service"
	"github.com/aliskhannn/times-table-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		lg.Fatal("failed to create bot", zap.Error(err))
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Pick a table"},
		{Command: "study", Description: "Look at a table (usage: /study 4)"},
		{Command: "quiz", Description: "Play the challenge (usage: /quiz 4)"},
		{Command: "stop", Description: "Stop the running challenge"},
		{Command: "stars", Description: "My stars"},
		{Command: "stats", Description: "Results per table"},
		{Command: "fairy", Description: "Ask the math fairy"},
		{Command: "settings", Description: "Settings"},
		{Command: "help", Description: "Help"},
	}

	if _, err = bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	bot.Debug = cfg.Env != "production"
	lg.Info("authorized on account", zap.String("username", bot.Self.UserName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		lg.Fatal("database is not configured", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	transactor := postgres.NewTransactor(pool)

	// Initialize repositories.
	userRepo := repository.NewUserRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	rewardRepo := repository.NewRewardRepository(pool)
	quizRepo := repository.NewQuizRepository(pool, transactor)

	// Initialize services.
	quizStorage := storage.NewQuizStorage()

	userService := service.NewUserService(userRepo, lg)
	settingsService := service.NewSettingsService(settingsRepo, cfg.Fairy.APIKey)
	rewardService := service.NewRewardService(rewardRepo, quizRepo)
	quizService := service.NewQuizService(quizStorage, quizRepo, service.QuizOptions{
		CorrectDelay: cfg.Quiz.CorrectDelay,
		WrongDelay:   cfg.Quiz.WrongDelay,
	}, lg)
	fairyService := service.NewFairyService(
		llm.NewCompleter(cfg.Fairy.Model),
		settingsService,
		cfg.Fairy.MaxHistory,
		lg,
	)

	cues := telegram.NewCuePlayer(bot, settingsService, cfg.AudioDir, lg)

	handler := telegram.NewHandler(
		bot,
		lg,
		userService,
		quizService,
		settingsService,
		rewardService,
		fairyService,
		quizStorage,
		cues,
	)
	quizService.SetObserver(handler)

	sweeper := service.NewSessionSweeper(quizService, cfg.Quiz.SweepSchedule, cfg.Quiz.IdleTimeout, lg)
	go func() {
		if err := sweeper.Start(ctx); err != nil {
			lg.Error("session sweeper failed", zap.Error(err))
		}
	}()

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("telegram handler stopped", zap.Error(err))
	}

	lg.Info("shutdown signal received")
}
