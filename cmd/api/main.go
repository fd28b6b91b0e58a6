package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"eth_backoff_api/internal/adapter/consensus"
	"eth_backoff_api/internal/adapter/execution"
	"eth_backoff_api/internal/cache"
	"eth_backoff_api/internal/domain"
	"eth_backoff_api/internal/retry"
	"eth_backoff_api/internal/usecase"
	"eth_backoff_api/pkg/config"
	httpPkg "eth_backoff_api/pkg/http"
	"eth_backoff_api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := log.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "error syncing logger: %v\n", err)
		}
	}()
	zap.ReplaceGlobals(log)

	consClient, err := consensus.NewConsensusClient(
		cfg.Ethereum.RPCHTTP,
		cfg.Retry.SyncDuties.Retry,
		cfg.Retry.SyncDuties.Timeout,
	)
	if err != nil {
		zap.L().Fatal("init consensus client", zap.Error(err))
	}
	sdCache, err := cache.New[domain.SyncDuties](cfg.Cache.SyncDuties.MaxEntries, cfg.Cache.SyncDuties.TTL)
	if err != nil {
		zap.L().Fatal("init sync duties cache", zap.Error(err))
	}
	sdUC := usecase.NewSyncDutiesUseCase(consClient, sdCache)

	// The node may still be starting; dialing is a retry session too.
	rpcHTTP, err := retry.Do(cfg.Retry.BlockReward.Retry, func() (*rpc.Client, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Retry.BlockReward.Timeout)
		defer cancel()
		return rpc.DialContext(ctx, cfg.Ethereum.RPCHTTP)
	})
	if err != nil {
		zap.L().Fatal("dial rpc", zap.Error(err))
	}
	defer rpcHTTP.Close()

	execClient := execution.NewExecutionClient(rpcHTTP, cfg.Ethereum.MevRelays, cfg.Retry.BlockReward.Retry)
	brCache, err := cache.New[domain.BlockReward](cfg.Cache.BlockReward.MaxEntries, cfg.Cache.BlockReward.TTL)
	if err != nil {
		zap.L().Fatal("init block reward cache", zap.Error(err))
	}
	brUC := usecase.NewBlockRewardUseCase(execClient, brCache)

	srv := &stdhttp.Server{
		Addr:    cfg.Server.Address,
		Handler: httpPkg.NewRouter(brUC, sdUC),
	}
	go func() {
		zap.L().Info("starting server", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			zap.L().Fatal("listen error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zap.L().Info("shutting down…")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
	zap.L().Info("server stopped")
}
