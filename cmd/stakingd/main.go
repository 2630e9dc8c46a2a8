package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"nftstaking/config"
	"nftstaking/core/events"
	"nftstaking/core/state"
	"nftstaking/core/types"
	"nftstaking/native/nftstake"
	"nftstaking/observability/logging"
	"nftstaking/rpc"
	"nftstaking/storage"
)

// logEmitter forwards ledger events to the structured log.
type logEmitter struct {
	log *slog.Logger
}

func (l *logEmitter) Emit(evt events.Event) {
	attrs := []any{"type", evt.EventType()}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		for k, v := range typed.Event().Attributes {
			attrs = append(attrs, k, v)
		}
	}
	l.log.Info("ledger event", attrs...)
}

// poolAddress derives the pool record address from its configured label.
func poolAddress(label string) [20]byte {
	var out [20]byte
	digest := ethcrypto.Keccak256([]byte("nftstake/pool/" + label))
	copy(out[:], digest[12:])
	return out
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("stakingd", cfg.Env)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open state database", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	engine := nftstake.NewEngine(poolAddress(cfg.PoolLabel))
	engine.SetState(manager)
	engine.SetResolver(manager)
	engine.SetEmitter(&logEmitter{log: logger})

	server := rpc.NewServer(engine, manager, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.ListenAddress, "pool", cfg.PoolLabel)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	}
}
