package consensus

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"eth_backoff_api/internal/domain"
	apierr "eth_backoff_api/internal/errors"
	"eth_backoff_api/internal/metrics"
	"eth_backoff_api/internal/port"
	"eth_backoff_api/internal/retry"
)

const (
	upstream = "consensus"

	syncCommitteesPath = "/eth/v1/beacon/states/%d/sync_committees"
	validatorsPath     = "/eth/v1/beacon/states/%d/validators?id=%s"
)

// errTransientStatus marks a beacon response worth another attempt.
var errTransientStatus = stderrors.New("transient status")

type ConsensusClient struct {
	execClient *ethclient.Client
	httpClient *http.Client
	endpoint   string
	retry      retry.Settings
}

type response struct {
	status int
	body   []byte
}

func NewConsensusClient(endpoint string, settings retry.Settings, requestTimeout time.Duration) (port.SyncDutiesClient, error) {
	execCli, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, err
	}
	return &ConsensusClient{
		execClient: execCli,
		httpClient: &http.Client{Timeout: requestTimeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		retry:      settings,
	}, nil
}

func (cc *ConsensusClient) GetSyncDuties(ctx context.Context, slot uint64) (domain.SyncDuties, error) {
	head, err := retried(cc.retry, "block_number", func() (uint64, error) {
		return cc.execClient.BlockNumber(ctx)
	})
	if err != nil {
		zap.L().Error("failed to fetch head slot", zap.Error(err))
		return domain.SyncDuties{}, err
	}
	if slot > head {
		return domain.SyncDuties{}, apierr.ErrSlotTooFarInFuture
	}

	indices, err := cc.fetchSyncCommittees(ctx, slot)
	if err != nil {
		return domain.SyncDuties{}, err
	}
	if len(indices) == 0 {
		return domain.SyncDuties{Validators: []string{}}, nil
	}

	pubkeys, err := cc.fetchValidatorPubkeys(ctx, slot, indices)
	if err != nil {
		return domain.SyncDuties{}, err
	}
	return domain.SyncDuties{Validators: pubkeys}, nil
}

func (cc *ConsensusClient) fetchSyncCommittees(ctx context.Context, slot uint64) ([]string, error) {
	resp, err := cc.get(ctx, "sync_committees", fmt.Sprintf(syncCommitteesPath, slot))
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("sync_committees request timed out", zap.Uint64("slot", slot))
			return nil, apierr.ErrRequestTimeout
		}
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
		var out struct {
			Data struct {
				Validators []string `json:"validators"`
			} `json:"data"`
		}
		if err := json.Unmarshal(resp.body, &out); err != nil {
			zap.L().Error("decoding sync_committees failed", zap.Error(err))
			return nil, err
		}
		return out.Data.Validators, nil
	case http.StatusBadRequest:
		// Pre-Altair states have no sync committee.
		if strings.Contains(string(resp.body), "not activated for Altair") {
			return nil, nil
		}
		return nil, apierr.ErrSlotTooFarInFuture
	case http.StatusNotFound:
		return nil, apierr.ErrSlotNotFound
	default:
		zap.L().Error("unexpected status sync_committees", zap.Int("code", resp.status))
		return nil, fmt.Errorf("sync_committees returned %d", resp.status)
	}
}

func (cc *ConsensusClient) fetchValidatorPubkeys(ctx context.Context, slot uint64, indices []string) ([]string, error) {
	path := fmt.Sprintf(validatorsPath, slot, strings.Join(indices, ","))
	resp, err := cc.get(ctx, "validators", path)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("validators request timed out", zap.Uint64("slot", slot))
			return nil, apierr.ErrRequestTimeout
		}
		return nil, err
	}
	if resp.status != http.StatusOK {
		zap.L().Error("validators error", zap.Int("code", resp.status))
		return nil, fmt.Errorf("validators returned %d", resp.status)
	}

	var out struct {
		Data []struct {
			Index     string `json:"index"`
			Validator struct {
				Pubkey string `json:"pubkey"`
			} `json:"validator"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		zap.L().Error("decoding validators failed", zap.Error(err))
		return nil, err
	}

	byIndex := make(map[string]string, len(out.Data))
	for _, e := range out.Data {
		byIndex[e.Index] = e.Validator.Pubkey
	}
	pubkeys := make([]string, len(indices))
	for i, idx := range indices {
		pubkeys[i] = byIndex[idx]
	}
	return pubkeys, nil
}

// get issues a GET against the beacon node as one retry session. Transport
// errors, 5xx and 429 responses count as failed attempts.
func (cc *ConsensusClient) get(ctx context.Context, call, path string) (response, error) {
	url := cc.endpoint + path
	return retried(cc.retry, call, func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return response{}, err
		}
		resp, err := cc.httpClient.Do(req)
		if err != nil {
			return response{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, fmt.Errorf("read %s body: %w", call, err)
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return response{}, fmt.Errorf("%s: %w %d", call, errTransientStatus, resp.StatusCode)
		}
		return response{status: resp.StatusCode, body: body}, nil
	})
}

// retried runs op as one retry session against the beacon node.
func retried[T any](s retry.Settings, call string, op func() (T, error)) (T, error) {
	start := time.Now()
	v, err := retry.Do(s, metrics.CountAttempts(upstream, call, op))
	metrics.ObserveSession(upstream, call, start, err)
	return v, err
}
