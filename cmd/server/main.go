package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/economy"
	"github.com/napolitain/resource-engine/internal/loader"
	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/persistence"
	"github.com/napolitain/resource-engine/internal/persistence/journal"
	"github.com/napolitain/resource-engine/internal/producer"
	"github.com/napolitain/resource-engine/internal/transport/ws"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Resource engine server",
		Long:         `Runs the economy, persists values to SQLite and pushes them to WebSocket clients.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if configFile != "" {
				var err error
				if cfg, err = LoadConfig(configFile); err != nil {
					return err
				}
			}
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				cfg.Listen = listen
			}

			logger := newLogger(cfg.LogLevel)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, logger, producer.WallClock)
			if err != nil {
				return err
			}
			return a.serve(ctx)
		},
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringP("listen", "l", "", "Listen address, overrides the config")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).With().Timestamp().Logger()
}

// app wires the economy to its storage, journal and transport
type app struct {
	cfg     Config
	logger  zerolog.Logger
	clock   producer.Clock
	catalog *loader.Catalog
	db      *persistence.DB
	journal *journal.Writer
	economy *economy.Economy
	ws      *ws.Server
}

func newApp(cfg Config, logger zerolog.Logger, clock producer.Clock) (*app, error) {
	catalog, err := loader.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	j := journal.NewWriter(cfg.JournalDir, "transfers")
	e := economy.New(logger, clock, db, j)

	return &app{
		cfg:     cfg,
		logger:  logger,
		clock:   clock,
		catalog: catalog,
		db:      db,
		journal: j,
		economy: e,
		ws:      ws.NewServer(e, cfg.wsConfig(), logger),
	}, nil
}

// serve runs until ctx is done, then saves every value and closes storage
func (a *app) serve(ctx context.Context) error {
	defer a.close()

	ectx, cancelEconomy := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.economy.Run(ectx)
	}()
	defer func() {
		cancelEconomy()
		wg.Wait()
	}()

	if err := a.registerAll(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", a.ws.Handler())
	srv := &http.Server{Addr: a.cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.Listen).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() { _ = a.ws.Run(ctx, a.cfg.BroadcastInterval) }()

	save := time.NewTicker(a.cfg.SaveInterval)
	defer save.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			runErr = err
			break loop
		case <-save.C:
			if err := a.saveAll(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("periodic save failed")
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err := a.saveAll(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("final save failed")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// registerAll registers the configured entities, resuming stored values when present
func (a *app) registerAll(ctx context.Context) error {
	stored, err := a.db.LoadValues(ctx)
	if err != nil {
		return fmt.Errorf("load values: %w", err)
	}
	saved := make(map[models.EntityID]models.ValueDto, len(stored))
	for _, v := range stored {
		saved[v.Entity] = v
	}

	for _, ec := range a.cfg.Entities {
		entity := models.EntityID(ec.ID)
		value, ok := saved[entity]
		if ok {
			a.logger.Info().Int64("entity", ec.ID).Int64("saved_at", value.Time).Msg("resuming stored value")
		} else {
			start, err := startAmounts(ec.Start)
			if err != nil {
				return fmt.Errorf("entity %d: %w", ec.ID, err)
			}
			value = models.ValueDto{Entity: entity, Resources: start, Time: a.clock()}
		}

		bonuses := make([]*bonus.Bonus, 0, len(ec.Bonuses))
		for _, name := range ec.Bonuses {
			b, err := a.catalog.Bonus(name)
			if err != nil {
				return fmt.Errorf("entity %d: %w", ec.ID, err)
			}
			bonuses = append(bonuses, b)
		}
		if err := a.economy.Register(ctx, entity, models.PlayerID(ec.Owner), value, bonuses...); err != nil {
			return err
		}
	}
	a.logger.Info().Int("entities", len(a.cfg.Entities)).Msg("entities registered")
	return nil
}

func (a *app) saveAll(ctx context.Context) error {
	values, err := a.economy.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := a.db.SaveValues(ctx, values); err != nil {
		return err
	}
	a.logger.Debug().Int("entities", len(values)).Msg("values saved")
	return nil
}

func (a *app) close() {
	if err := a.journal.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing journal")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing database")
	}
}

func startAmounts(byName map[string]float64) (models.Resources, error) {
	byType := make(map[models.ResourceType]float64, len(byName))
	for name, v := range byName {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			return models.Resources{}, err
		}
		byType[rt] = v
	}
	return models.FromMap(byType), nil
}
