// Package indexer builds a queryable history of factory deployments from the factory events.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

// LogSource is the part of an L2 client the indexer reads from.
// Both *ethclient.Client and *chain.Chain implement it.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type Metrics interface {
	RecordIndexedDeployments(n int)
	RecordIndexerHead(head uint64)
}

type Config struct {
	// Factory is the address whose events are indexed.
	Factory common.Address
	// DataDir of the pebble store. Empty keeps the index in memory.
	DataDir string
	// StartBlock is the first block to index when the store is empty.
	StartBlock uint64
	// MaxBlockRange caps the block span of a single log query.
	MaxBlockRange uint64
	PollInterval  time.Duration
	// RequestsPerSecond limits log queries against the source. Zero means unlimited.
	RequestsPerSecond float64
}

const deploymentCacheSize = 1024

type Indexer struct {
	log log.Logger
	m   Metrics
	cfg Config
	src LogSource

	store *store
	// indexed records never change, so lookups are cached
	cache   *lru.Cache[common.Address, *Deployment]
	limiter *rate.Limiter

	// syncMu serializes Sync calls
	syncMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func New(logger log.Logger, m Metrics, cfg Config, src LogSource) (*Indexer, error) {
	if cfg.MaxBlockRange == 0 {
		return nil, errors.New("max block range must be positive")
	}
	cache, err := lru.New[common.Address, *Deployment](deploymentCacheSize)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	st, err := openStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		log:     logger,
		m:       m,
		cfg:     cfg,
		src:     src,
		store:   st,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Head returns the last indexed block. ErrNotFound means nothing was indexed yet.
func (idx *Indexer) Head() (uint64, error) {
	return idx.store.Head()
}

func (idx *Indexer) Deployment(local common.Address) (*Deployment, error) {
	if d, ok := idx.cache.Get(local); ok {
		return d, nil
	}
	d, err := idx.store.Deployment(local)
	if err != nil {
		return nil, err
	}
	idx.cache.Add(local, d)
	return d, nil
}

func (idx *Indexer) DeploymentsByRemote(remote common.Address) ([]*Deployment, error) {
	return idx.store.DeploymentsByRemote(remote)
}

// Sync indexes every block between the last indexed block and the source head.
// Each block range is committed together with its new head, so an interrupted sync resumes cleanly.
func (idx *Indexer) Sync(ctx context.Context) (uint64, error) {
	idx.syncMu.Lock()
	defer idx.syncMu.Unlock()

	target, err := idx.src.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch head block number: %w", err)
	}
	from := idx.cfg.StartBlock
	head, err := idx.store.Head()
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("failed to read indexed head: %w", err)
	default:
		from = head + 1
	}
	if from > target {
		return head, nil
	}

	for from <= target {
		if err := ctx.Err(); err != nil {
			return head, err
		}
		to := min(from+idx.cfg.MaxBlockRange-1, target)
		if err := idx.limiter.Wait(ctx); err != nil {
			return head, err
		}
		logs, err := idx.src.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{idx.cfg.Factory},
			Topics: [][]common.Hash{{
				factory.StandardL2TokenCreatedTopic,
				factory.OptimismMintableERC20CreatedTopic,
			}},
		})
		if err != nil {
			return head, fmt.Errorf("failed to fetch logs %d-%d: %w", from, to, err)
		}
		deployments := idx.collect(logs)
		if err := idx.store.commit(deployments, to); err != nil {
			return head, fmt.Errorf("failed to store blocks %d-%d: %w", from, to, err)
		}
		head = to
		idx.m.RecordIndexedDeployments(len(deployments))
		idx.m.RecordIndexerHead(head)
		if len(deployments) > 0 {
			idx.log.Info("Indexed deployments", "from", from, "to", to, "count", len(deployments))
		}
		from = to + 1
	}
	return head, nil
}

// collect pairs the legacy and current event of each created token, keeping log order.
func (idx *Indexer) collect(logs []types.Log) []*Deployment {
	var out []*Deployment
	byLocal := make(map[common.Address]*Deployment)
	for i := range logs {
		l := &logs[i]
		if l.Removed || l.Address != idx.cfg.Factory {
			continue
		}
		ev, err := factory.ParseLog(l)
		if err != nil {
			idx.log.Warn("Skipping undecodable factory log", "tx", l.TxHash, "index", l.Index, "err", err)
			continue
		}
		var local, remote common.Address
		switch ev := ev.(type) {
		case *factory.StandardL2TokenCreated:
			local, remote = ev.LocalToken, ev.RemoteToken
		case *factory.OptimismMintableERC20Created:
			local, remote = ev.LocalToken, ev.RemoteToken
		}
		d, ok := byLocal[local]
		if !ok {
			d = &Deployment{
				LocalToken:  local,
				RemoteToken: remote,
				BlockNumber: l.BlockNumber,
				TxHash:      l.TxHash,
				LogIndex:    l.Index,
			}
			byLocal[local] = d
			out = append(out, d)
		} else if d.RemoteToken != remote {
			idx.log.Warn("Creation events disagree on remote token", "local", local,
				"legacy", d.RemoteToken, "current", remote, "tx", l.TxHash)
		}
		switch ev := ev.(type) {
		case *factory.StandardL2TokenCreated:
			d.LegacyEvent = true
		case *factory.OptimismMintableERC20Created:
			d.CurrentEvent = true
			d.Deployer = ev.Deployer
			d.RemoteToken = ev.RemoteToken
		}
	}
	return out
}

// Start syncs in the background every poll interval until Stop is called.
func (idx *Indexer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	idx.cancel = cancel
	idx.done = make(chan struct{})
	go idx.loop(ctx)
}

func (idx *Indexer) loop(ctx context.Context) {
	defer close(idx.done)
	ticker := time.NewTicker(idx.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := idx.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			idx.log.Warn("Failed to sync deployments", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the background loop, if running, and closes the store.
func (idx *Indexer) Stop() error {
	if idx.cancel != nil {
		idx.cancel()
		<-idx.done
		idx.cancel = nil
	}
	return idx.store.Close()
}
