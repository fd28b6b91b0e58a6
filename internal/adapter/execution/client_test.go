package execution

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eth_backoff_api/internal/domain"
	"eth_backoff_api/internal/retry"
)

func TestNewExecutionClient_ParsesRelays(t *testing.T) {
	rpcClient, err := rpc.DialHTTP("http://127.0.0.1:0")
	require.NoError(t, err)
	defer rpcClient.Close()

	c := NewExecutionClient(rpcClient, []string{"0x01", "0xBB7B8287F3F0A933474A79EAE42CBCA977791171"}, retry.DefaultSettings())
	ec := c.(*ExecutionClient)

	assert.Len(t, ec.mevRelays, 2)
	assert.Contains(t, ec.mevRelays, common.HexToAddress("0xbb7b8287f3f0a933474a79eae42cbca977791171"))
}

func TestGetBlockReward_GenesisSkipsNode(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rpcClient, err := rpc.DialHTTP(srv.URL)
	require.NoError(t, err)
	defer rpcClient.Close()

	got, err := NewExecutionClient(rpcClient, nil, retry.DefaultSettings()).GetBlockReward(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.BlockReward{Status: domain.StatusVanilla}, got)
	assert.Zero(t, calls.Load())
}

func TestGetBlockReward_RetriesHeadLookup(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rpcClient, err := rpc.DialHTTP(srv.URL)
	require.NoError(t, err)
	defer rpcClient.Close()

	settings := retry.Settings{MaxRetries: 2, InitialDelay: time.Millisecond, BackoffFactor: 2}
	_, err = NewExecutionClient(rpcClient, nil, settings).GetBlockReward(context.Background(), 5)
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
