package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/quarry/internal/app"
	"github.com/Rana718/quarry/internal/config"
	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/logger"
)

// session is one connected store with the catalogue wired onto it.
type session struct {
	cfg *config.Config
	app *app.App
}

func (s *session) Close() error {
	return s.app.Store.Close()
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	adapter := database.NewAdapter(cfg.Database.Provider)
	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a, err := app.New(adapter, log)
	if err != nil {
		adapter.Close()
		return nil, err
	}
	return &session{cfg: cfg, app: a}, nil
}

func askUserConfirmation(force bool, message string) bool {
	if force {
		return true
	}

	fmt.Printf("🤔 %s (y/N): ", message)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y"
}
