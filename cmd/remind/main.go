package main

import (
	"context"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/imroc/req/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/dashboard"
	"github.com/skynet2/spending-dashboard/pkg/notifications"
	"github.com/skynet2/spending-dashboard/pkg/parser"
	"github.com/skynet2/spending-dashboard/pkg/repo"
)

func main() {
	var cfg common.Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to parse config")
	}

	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}

	ctx := zerolog.New(os.Stdout).With().Timestamp().Logger().WithContext(context.Background())

	store, err := repo.Open(&cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}

	app := dashboard.NewApp(&dashboard.Config{
		Store:  store,
		Parser: parser.NewParser(),
		Prefix: cfg.AppPrefix,
	})
	app.Init(ctx)
	defer app.Dispose(ctx)

	tgNotifier := notifications.NewTelegram(
		cfg.TelegramBotToken,
		req.DefaultClient(),
	)

	if err = sendReport(ctx, app, tgNotifier, cfg.TelegramChatID); err != nil {
		log.Fatal().Err(err).Msg("failed to remind")
	}
}
