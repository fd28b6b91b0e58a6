package consensus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apierr "eth_backoff_api/internal/errors"
	"eth_backoff_api/internal/retry"
)

func newTestClient(t *testing.T, status func(call int32) int) (*ConsensusClient, *atomic.Int32) {
	t.Helper()
	zap.ReplaceGlobals(zap.NewNop())

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status(calls.Add(1)))
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewConsensusClient(srv.URL+"/", retry.Settings{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 1.5,
	}, time.Second)
	require.NoError(t, err)
	return c.(*ConsensusClient), &calls
}

func TestGet_RetriesTransientStatus(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		c, calls := newTestClient(t, func(int32) int { return code })

		_, err := c.get(context.Background(), "probe", "/x")
		assert.ErrorIs(t, err, errTransientStatus)
		assert.Equal(t, int32(3), calls.Load(), "status %d", code)
	}
}

func TestGet_ReturnsPermanentStatusWithoutRetry(t *testing.T) {
	c, calls := newTestClient(t, func(int32) int { return http.StatusNotFound })

	resp, err := c.get(context.Background(), "probe", "/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_BuildsFreshRequestPerAttempt(t *testing.T) {
	c, calls := newTestClient(t, func(n int32) int {
		if n < 3 {
			return http.StatusBadGateway
		}
		return http.StatusOK
	})

	resp, err := c.get(context.Background(), "probe", "/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []byte(`{}`), resp.body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_TrimsEndpointSlash(t *testing.T) {
	c, _ := newTestClient(t, func(int32) int { return http.StatusOK })
	assert.False(t, strings.HasSuffix(c.endpoint, "/"), c.endpoint)
}

func TestFetchSyncCommittees_TimeoutMapsToAPIError(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	cc, err := NewConsensusClient(srv.URL, retry.Settings{BackoffFactor: 1}, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cc.(*ConsensusClient).fetchSyncCommittees(ctx, 1)
	assert.Equal(t, apierr.ErrRequestTimeout, err)
}
