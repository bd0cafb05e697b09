package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/erp/woosync/internal/infrastructure/auth"
	"github.com/erp/woosync/internal/infrastructure/config"
	"github.com/erp/woosync/internal/infrastructure/logger"
)

// token mints an operator token for the sync API. The token goes to stdout, logs to stderr.
func main() {
	var (
		subject string
		ttl     time.Duration
	)
	flag.StringVar(&subject, "subject", "", "Operator or service the token is issued to (required)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.token_ttl)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if subject == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	token, expiresAt, err := auth.NewTokenService(cfg.JWT).Issue(subject, ttl)
	if err != nil {
		log.Fatal("Failed to issue token", zap.String("subject", subject), zap.Error(err))
	}
	log.Info("Token issued",
		zap.String("subject", subject),
		zap.String("issuer", cfg.JWT.Issuer),
		zap.Time("expires_at", expiresAt),
	)
	fmt.Println(token)
}
