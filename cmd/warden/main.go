package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Neil2813/Content-Room/moderation/audit"

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
		Name:    "warden",
		Usage:   "multimodal content moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/warden/moderation.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the moderation API",
			Value:   ":3999",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; enables the shared result cache",
			EnvVars: []string{"WARDEN_REDIS_URL", "REDIS_URL"},
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "lifetime of cached moderation results",
			Value:   30 * time.Minute,
			EnvVars: []string{"WARDEN_CACHE_TTL"},
		},
		&cli.DurationFlag{
			Name:    "provider-timeout",
			Usage:   "shared deadline for a single provider ensemble pass",
			Value:   15 * time.Second,
			EnvVars: []string{"WARDEN_PROVIDER_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "prefilter-config",
			Usage:   "path to YAML prefilter config (denylist and thresholds)",
			EnvVars: []string{"WARDEN_PREFILTER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Value:   "us-east-1",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "aws-access-key-id",
			EnvVars: []string{"AWS_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "aws-secret-access-key",
			EnvVars: []string{"AWS_SECRET_ACCESS_KEY"},
		},
		&cli.Float64Flag{
			Name:    "aws-rate-limit",
			Usage:   "max requests per second to each AWS analysis API",
			Value:   8,
			EnvVars: []string{"WARDEN_AWS_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "onnx-bundle-dir",
			Usage:   "directory holding local ONNX model bundles",
			EnvVars: []string{"WARDEN_ONNX_BUNDLE_DIR"},
		},
		&cli.Int64Flag{
			Name:    "onnx-max-concurrent",
			Usage:   "max concurrent local model inferences",
			Value:   2,
			EnvVars: []string{"WARDEN_ONNX_MAX_CONCURRENT"},
		},
		&cli.StringFlag{
			Name:    "vision-lm-host",
			Usage:   "method, hostname, and port of vision language model service",
			EnvVars: []string{"WARDEN_VISION_LM_HOST"},
		},
		&cli.StringFlag{
			Name:    "vision-lm-token",
			EnvVars: []string{"WARDEN_VISION_LM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "vision-lm-model",
			Value:   "gpt-4o-mini",
			EnvVars: []string{"WARDEN_VISION_LM_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-host",
			Usage:   "method, hostname, and port of primary chat completion service",
			EnvVars: []string{"WARDEN_CHAT_HOST"},
		},
		&cli.StringFlag{
			Name:    "chat-token",
			EnvVars: []string{"WARDEN_CHAT_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Value:   "gpt-4o-mini",
			EnvVars: []string{"WARDEN_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-fallback-host",
			Usage:   "method, hostname, and port of fallback chat completion service",
			EnvVars: []string{"WARDEN_CHAT_FALLBACK_HOST"},
		},
		&cli.StringFlag{
			Name:    "chat-fallback-token",
			EnvVars: []string{"WARDEN_CHAT_FALLBACK_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "chat-fallback-model",
			Value:   "llama-3.1-8b-instruct",
			EnvVars: []string{"WARDEN_CHAT_FALLBACK_MODEL"},
		},
		&cli.StringFlag{
			Name:    "whisper-host",
			Usage:   "method, hostname, and port of speech transcription service",
			EnvVars: []string{"WARDEN_WHISPER_HOST"},
		},
		&cli.StringFlag{
			Name:    "whisper-token",
			EnvVars: []string{"WARDEN_WHISPER_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "whisper-model",
			Value:   "whisper-1",
			EnvVars: []string{"WARDEN_WHISPER_MODEL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		configOTEL("warden")

		db, err := audit.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(db, Config{
			Logger:            logger,
			RedisURL:          cctx.String("redis-url"),
			CacheTTL:          cctx.Duration("cache-ttl"),
			ProviderTimeout:   cctx.Duration("provider-timeout"),
			PrefilterConfig:   cctx.String("prefilter-config"),
			AWSRegion:         cctx.String("aws-region"),
			AWSAccessKeyID:    cctx.String("aws-access-key-id"),
			AWSSecretKey:      cctx.String("aws-secret-access-key"),
			AWSRateLimit:      cctx.Float64("aws-rate-limit"),
			ONNXBundleDir:     cctx.String("onnx-bundle-dir"),
			ONNXMaxConcurrent: cctx.Int64("onnx-max-concurrent"),
			VisionLMHost:      cctx.String("vision-lm-host"),
			VisionLMToken:     cctx.String("vision-lm-token"),
			VisionLMModel:     cctx.String("vision-lm-model"),
			ChatHost:          cctx.String("chat-host"),
			ChatToken:         cctx.String("chat-token"),
			ChatModel:         cctx.String("chat-model"),
			ChatFallbackHost:  cctx.String("chat-fallback-host"),
			ChatFallbackToken: cctx.String("chat-fallback-token"),
			ChatFallbackModel: cctx.String("chat-fallback-model"),
			WhisperHost:       cctx.String("whisper-host"),
			WhisperToken:      cctx.String("whisper-token"),
			WhisperModel:      cctx.String("whisper-model"),
		})
		if err != nil {
			return err
		}

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
