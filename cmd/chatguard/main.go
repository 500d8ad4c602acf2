package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatguard/chatguard/automod/engine"
	"github.com/chatguard/chatguard/automod/floodstore"
	"github.com/chatguard/chatguard/automod/keyword"
	"github.com/chatguard/chatguard/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "chatguard",
		Usage:   "chat moderation daemon (keeps group chats clean)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"CHATGUARD_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: text or json",
			Value:   "json",
			EnvVars: []string{"CHATGUARD_LOG_FMT", "LOG_FMT"},
		},
		&cli.StringFlag{
			Name:    "sets-json",
			Usage:   "path to JSON file with word lists, replacing the built-in ones",
			EnvVars: []string{"CHATGUARD_SETS_JSON"},
		},
		&cli.IntFlag{
			Name:    "filler-bound",
			Usage:   "max non-letter characters tolerated between letters of a lexicon word",
			Value:   keyword.DefaultFillerBound,
			EnvVars: []string{"CHATGUARD_FILLER_BOUND"},
		},
		&cli.BoolFlag{
			Name:    "delete-unlabeled-media",
			Usage:   "delete media messages with no caption text",
			Value:   true,
			EnvVars: []string{"CHATGUARD_DELETE_UNLABELED_MEDIA"},
		},
	}

	app.Before = func(cctx *cli.Context) error {
		_, err := cliutil.SetupSlog(cliutil.LogOptions{
			LogLevel:  cctx.String("log-level"),
			LogFormat: cctx.String("log-format"),
		})
		return err
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "telegram-token",
			Usage:    "bot token issued by BotFather",
			Required: true,
			EnvVars:  []string{"CHATGUARD_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "telegram-api-endpoint",
			Usage:   "Bot API endpoint format string, for self-hosted API servers",
			EnvVars: []string{"CHATGUARD_TELEGRAM_API_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; in-process state is used if not set",
			EnvVars: []string{"CHATGUARD_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database for reputation scores and the action ledger",
			Value:   "sqlite://data/chatguard/chatguard.db",
			EnvVars: []string{"CHATGUARD_DATABASE_URL", "DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"CHATGUARD_MAX_DB_CONNECTIONS"},
			Value:   40,
		},
		&cli.BoolFlag{
			Name:    "sql-action-ledger",
			Usage:   "record applied actions in the database instead of redis or memory",
			EnvVars: []string{"CHATGUARD_SQL_ACTION_LEDGER"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "Slack incoming webhook for ban notifications",
			EnvVars: []string{"CHATGUARD_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server to publish verdict events to",
			EnvVars: []string{"CHATGUARD_NATS_URL", "NATS_URL"},
		},
		&cli.StringFlag{
			Name:    "nats-subject",
			Value:   engine.DefaultVerdictSubject,
			EnvVars: []string{"CHATGUARD_NATS_SUBJECT"},
		},
		&cli.StringFlag{
			Name:    "ocr-host",
			Usage:   "method, hostname, and port of image text extraction service",
			EnvVars: []string{"CHATGUARD_OCR_HOST"},
		},
		&cli.StringFlag{
			Name:    "ocr-api-key",
			EnvVars: []string{"CHATGUARD_OCR_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "ocr-language",
			Value:   "rus",
			EnvVars: []string{"CHATGUARD_OCR_LANGUAGE"},
		},
		&cli.IntFlag{
			Name:    "flood-limit",
			Usage:   "messages per user per chat within the flood interval which trigger a ban",
			Value:   floodstore.DefaultLimit,
			EnvVars: []string{"CHATGUARD_FLOOD_LIMIT"},
		},
		&cli.DurationFlag{
			Name:    "flood-interval",
			Value:   floodstore.DefaultInterval,
			EnvVars: []string{"CHATGUARD_FLOOD_INTERVAL"},
		},
		&cli.Int64SliceFlag{
			Name:    "exempt-user-ids",
			Usage:   "user ids never moderated in any chat",
			EnvVars: []string{"CHATGUARD_EXEMPT_USER_IDS"},
		},
		&cli.IntFlag{
			Name:    "parallelism",
			Usage:   "number of messages to process concurrently",
			Value:   8,
			EnvVars: []string{"CHATGUARD_PARALLELISM"},
		},
		&cli.Float64Flag{
			Name:    "download-rate-limit",
			Usage:   "max image downloads per second, across all chats",
			Value:   5,
			EnvVars: []string{"CHATGUARD_DOWNLOAD_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "reply-limit",
			Usage:   "max bot replies per chat per minute",
			Value:   20,
			EnvVars: []string{"CHATGUARD_REPLY_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "quota-delete-day",
			Usage:   "max message deletions per day before the circuit breaker trips",
			Value:   engine.QuotaDeleteDay,
			EnvVars: []string{"CHATGUARD_QUOTA_DELETE_DAY"},
		},
		&cli.IntFlag{
			Name:    "quota-ban-day",
			Usage:   "max bans per day before the circuit breaker trips",
			Value:   engine.QuotaBanDay,
			EnvVars: []string{"CHATGUARD_QUOTA_BAN_DAY"},
		},
		&cli.StringFlag{
			Name:    "janitor-schedule",
			Usage:   "cron schedule for expiring flood windows and the action ledger",
			Value:   "@every 1m",
			EnvVars: []string{"CHATGUARD_JANITOR_SCHEDULE"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3999",
			EnvVars: []string{"CHATGUARD_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"CHATGUARD_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := slog.Default()

		shutdownOTEL := configOTEL("chatguard")
		defer shutdownOTEL()

		engine.QuotaDeleteDay = cctx.Int("quota-delete-day")
		engine.QuotaBanDay = cctx.Int("quota-ban-day")

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(
			ctx,
			db,
			Config{
				TelegramToken:        cctx.String("telegram-token"),
				TelegramAPIEndpoint:  cctx.String("telegram-api-endpoint"),
				RedisURL:             cctx.String("redis-url"),
				SQLActionLedger:      cctx.Bool("sql-action-ledger"),
				SetsFileJSON:         cctx.String("sets-json"),
				FillerBound:          cctx.Int("filler-bound"),
				DeleteUnlabeledMedia: cctx.Bool("delete-unlabeled-media"),
				SlackWebhookURL:      cctx.String("slack-webhook-url"),
				NATSURL:              cctx.String("nats-url"),
				NATSSubject:          cctx.String("nats-subject"),
				OCRHost:              cctx.String("ocr-host"),
				OCRAPIKey:            cctx.String("ocr-api-key"),
				OCRLanguage:          cctx.String("ocr-language"),
				FloodLimit:           cctx.Int("flood-limit"),
				FloodInterval:        cctx.Duration("flood-interval"),
				ExemptUserIDs:        cctx.Int64Slice("exempt-user-ids"),
				Parallelism:          cctx.Int("parallelism"),
				DownloadRateLimit:    cctx.Float64("download-rate-limit"),
				ReplyLimit:           int64(cctx.Int("reply-limit")),
				JanitorSchedule:      cctx.String("janitor-schedule"),
				Logger:               logger,
			},
		)
		if err != nil {
			return err
		}
		defer srv.Close()

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx, cctx.String("bind")); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "evaluate a single message offline and print the verdict",
	ArgsUsage: "[text]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "text",
			Usage: "message text (alternatively, the first argument)",
		},
		&cli.StringFlag{
			Name:  "caption",
			Usage: "media caption, used when there is no text",
		},
		&cli.BoolFlag{
			Name:  "media",
			Usage: "message carries a photo, video, animation or document",
		},
		&cli.StringFlag{
			Name:  "file-name",
			Usage: "attachment filename",
		},
		&cli.StringFlag{
			Name:  "ocr-text",
			Usage: "text extracted from the attached image",
		},
		&cli.BoolFlag{
			Name:  "admin",
			Usage: "treat the sender as a chat administrator",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()

		eng, err := NewCheckEngine(ctx, slog.Default(), cctx.String("sets-json"), cctx.Int("filler-bound"), cctx.Bool("delete-unlabeled-media"))
		if err != nil {
			return err
		}

		text := cctx.String("text")
		if text == "" {
			text = cctx.Args().First()
		}
		req := CheckRequest{
			Text:          text,
			Caption:       cctx.String("caption"),
			HasMedia:      cctx.Bool("media"),
			FileName:      cctx.String("file-name"),
			OCRText:       cctx.String("ocr-text"),
			SenderIsAdmin: cctx.Bool("admin"),
		}
		resp := checkMessage(ctx, eng, req, time.Now())

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}
