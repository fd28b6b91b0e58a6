package execution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"eth_backoff_api/internal/domain"
	apierr "eth_backoff_api/internal/errors"
	"eth_backoff_api/internal/metrics"
	"eth_backoff_api/internal/port"
	"eth_backoff_api/internal/retry"
)

const upstream = "execution"

var gweiPerWei = big.NewInt(1e9)

type ExecutionClient struct {
	ethClient *ethclient.Client
	mevRelays map[common.Address]struct{}
	retry     retry.Settings
}

func NewExecutionClient(rpcClient *rpc.Client, mevAddrs []string, settings retry.Settings) port.BlockRewardClient {
	relays := make(map[common.Address]struct{}, len(mevAddrs))
	for _, hex := range mevAddrs {
		relays[common.HexToAddress(hex)] = struct{}{}
	}
	return &ExecutionClient{
		ethClient: ethclient.NewClient(rpcClient),
		mevRelays: relays,
		retry:     settings,
	}
}

func (ec *ExecutionClient) GetBlockReward(ctx context.Context, slot uint64) (domain.BlockReward, error) {
	if slot == 0 {
		return domain.BlockReward{Status: domain.StatusVanilla, Reward: 0}, nil
	}

	head, err := retried(ec.retry, "block_number", func() (uint64, error) {
		return ec.ethClient.BlockNumber(ctx)
	})
	if err != nil {
		zap.L().Error("failed to fetch head block", zap.Error(err))
		return domain.BlockReward{}, err
	}
	if slot > head {
		return domain.BlockReward{}, apierr.ErrSlotInFuture
	}

	number := new(big.Int).SetUint64(slot)
	header, err := retried(ec.retry, "header_by_number", func() (*types.Header, error) {
		return ec.ethClient.HeaderByNumber(ctx, number)
	})
	if err != nil {
		zap.L().Error("header not found", zap.Uint64("slot", slot), zap.Error(err))
		return domain.BlockReward{}, apierr.ErrSlotNotFound
	}

	status := domain.StatusVanilla
	if _, ok := ec.mevRelays[header.Coinbase]; ok {
		status = domain.StatusMEV
	}

	before, err := ec.balanceAt(ctx, header.Coinbase, new(big.Int).Sub(number, common.Big1))
	if err != nil {
		zap.L().Error("failed to get balance before block", zap.Uint64("slot", slot), zap.Error(err))
		return domain.BlockReward{}, err
	}
	after, err := ec.balanceAt(ctx, header.Coinbase, number)
	if err != nil {
		zap.L().Error("failed to get balance after block", zap.Uint64("slot", slot), zap.Error(err))
		return domain.BlockReward{}, err
	}

	rewardWei := new(big.Int).Sub(after, before)
	rewardGwei := new(big.Int).Quo(rewardWei, gweiPerWei)

	return domain.BlockReward{
		Status: status,
		Reward: float64(rewardGwei.Int64()),
	}, nil
}

func (ec *ExecutionClient) balanceAt(ctx context.Context, addr common.Address, number *big.Int) (*big.Int, error) {
	return retried(ec.retry, "balance_at", func() (*big.Int, error) {
		return ec.ethClient.BalanceAt(ctx, addr, number)
	})
}

// retried runs op as one retry session against the execution node.
func retried[T any](s retry.Settings, call string, op func() (T, error)) (T, error) {
	start := time.Now()
	v, err := retry.Do(s, metrics.CountAttempts(upstream, call, op))
	metrics.ObserveSession(upstream, call, start, err)
	return v, err
}
