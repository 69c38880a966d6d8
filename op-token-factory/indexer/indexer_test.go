package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-token-factory/op-service/predeploys"
	"github.com/mantlenetworkio/mantle-token-factory/op-service/testlog"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/chain"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

var (
	factoryAddr = predeploys.OptimismMintableERC20FactoryAddr
	remoteA     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	remoteB     = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")
	alice       = common.HexToAddress("0xa11ce00000000000000000000000000000000000")
)

type testMetrics struct {
	indexed int
	head    uint64
}

func (m *testMetrics) RecordIndexedDeployments(n int) { m.indexed += n }

func (m *testMetrics) RecordIndexerHead(head uint64) { m.head = head }

func setup(t *testing.T, cfg Config) (*chain.Chain, *factory.Deployment, *Indexer, *testMetrics) {
	logger := testlog.Logger(t, log.LevelDebug)
	ch := chain.New(logger)
	d, err := factory.Deploy(ch, factoryAddr, factory.New(logger, predeploys.L2StandardBridgeAddr))
	require.NoError(t, err)
	cfg.Factory = factoryAddr
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = 100
	}
	m := &testMetrics{}
	idx, err := New(logger, m, cfg, ch)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Stop() })
	return ch, d, idx, m
}

func TestSyncIndexesDeployments(t *testing.T) {
	_, d, idx, m := setup(t, Config{MaxBlockRange: 2})
	ctx := context.Background()

	_, err := idx.Head()
	require.ErrorIs(t, err, ErrNotFound)

	c1, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	c2, err := d.CreateStandardL2Token(alice, remoteA, "A", "A")
	require.NoError(t, err)
	_, err = d.CreateOptimismMintableERC20(alice, common.Address{}, "X", "X")
	require.ErrorIs(t, err, factory.ErrInvalidArgument)
	c3, err := d.CreateOptimismMintableERC20(alice, remoteB, "B", "B")
	require.NoError(t, err)

	head, err := idx.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), head)
	require.Equal(t, 3, m.indexed)
	require.Equal(t, uint64(3), m.head)

	got, err := idx.Deployment(c1.LocalToken)
	require.NoError(t, err)
	require.Equal(t, &Deployment{
		LocalToken:   c1.LocalToken,
		RemoteToken:  remoteA,
		Deployer:     alice,
		BlockNumber:  c1.Receipt.BlockNumber,
		TxHash:       c1.Receipt.TxHash,
		LogIndex:     0,
		LegacyEvent:  true,
		CurrentEvent: true,
	}, got)

	byRemote, err := idx.DeploymentsByRemote(remoteA)
	require.NoError(t, err)
	require.Len(t, byRemote, 2)
	locals := []common.Address{byRemote[0].LocalToken, byRemote[1].LocalToken}
	require.ElementsMatch(t, []common.Address{c1.LocalToken, c2.LocalToken}, locals)

	byRemote, err = idx.DeploymentsByRemote(remoteB)
	require.NoError(t, err)
	require.Len(t, byRemote, 1)
	require.Equal(t, c3.LocalToken, byRemote[0].LocalToken)

	_, err = idx.Deployment(remoteA)
	require.ErrorIs(t, err, ErrNotFound)

	// nothing new to index
	head, err = idx.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), head)
	require.Equal(t, 3, m.indexed)
}

func TestSyncResumesFromStoredHead(t *testing.T) {
	dir := t.TempDir()
	logger := testlog.Logger(t, log.LevelDebug)
	ch := chain.New(logger)
	d, err := factory.Deploy(ch, factoryAddr, factory.New(logger, predeploys.L2StandardBridgeAddr))
	require.NoError(t, err)
	cfg := Config{Factory: factoryAddr, DataDir: dir, MaxBlockRange: 10}
	ctx := context.Background()

	c1, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	idx, err := New(logger, &testMetrics{}, cfg, ch)
	require.NoError(t, err)
	_, err = idx.Sync(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.Stop())

	c2, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	m := &testMetrics{}
	idx, err = New(logger, m, cfg, ch)
	require.NoError(t, err)
	defer idx.Stop()

	head, err := idx.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(1), head)
	head, err = idx.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), head)
	require.Equal(t, 1, m.indexed, "only the new block is indexed")

	for _, local := range []common.Address{c1.LocalToken, c2.LocalToken} {
		_, err := idx.Deployment(local)
		require.NoError(t, err)
	}
}

// legacyEmitter stands in for an older factory that only emits the legacy event.
type legacyEmitter struct{}

func TestLegacyOnlyEvents(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	ch := chain.New(logger)
	require.NoError(t, ch.Deploy(factoryAddr, legacyEmitter{}))
	idx, err := New(logger, &testMetrics{}, Config{Factory: factoryAddr, MaxBlockRange: 10}, ch)
	require.NoError(t, err)
	defer idx.Stop()

	local := common.HexToAddress("0x2222222222222222222222222222222222222222")
	_, err = ch.Execute(alice, factoryAddr, func(call *chain.Call) error {
		topics, data, err := (&factory.StandardL2TokenCreated{RemoteToken: remoteA, LocalToken: local}).Encode()
		if err != nil {
			return err
		}
		call.EmitLog(topics, data)
		// unrelated log of the same contract
		call.EmitLog([]common.Hash{{0x1}}, nil)
		return nil
	})
	require.NoError(t, err)

	_, err = idx.Sync(context.Background())
	require.NoError(t, err)
	got, err := idx.Deployment(local)
	require.NoError(t, err)
	require.True(t, got.LegacyEvent)
	require.False(t, got.CurrentEvent)
	require.Equal(t, common.Address{}, got.Deployer)
	require.Equal(t, remoteA, got.RemoteToken)
}

type failingSource struct {
	err error
}

func (f *failingSource) BlockNumber(ctx context.Context) (uint64, error) { return 10, nil }

func (f *failingSource) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, f.err
}

func TestSyncSourceError(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	srcErr := errors.New("rpc down")
	idx, err := New(logger, &testMetrics{}, Config{Factory: factoryAddr, MaxBlockRange: 5}, &failingSource{err: srcErr})
	require.NoError(t, err)
	defer idx.Stop()

	_, err = idx.Sync(context.Background())
	require.ErrorIs(t, err, srcErr)
	_, err = idx.Head()
	require.ErrorIs(t, err, ErrNotFound, "failed range is not committed")
}

func TestBackgroundLoop(t *testing.T) {
	_, d, idx, _ := setup(t, Config{PollInterval: 10 * time.Millisecond})
	idx.Start()

	c, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := idx.Deployment(c.LocalToken)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewRejectsZeroRange(t *testing.T) {
	_, err := New(testlog.Logger(t, log.LevelInfo), &testMetrics{}, Config{}, &failingSource{})
	require.Error(t, err)
}

func TestUpperBound(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x03}, upperBound([]byte{0x01, 0x02}))
	require.Equal(t, []byte{0x02}, upperBound([]byte{0x01, 0xff}))
	require.Nil(t, upperBound([]byte{0xff, 0xff}))
}

func TestDeploymentLookupIsCached(t *testing.T) {
	_, d, idx, _ := setup(t, Config{})
	c, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	_, err = idx.Sync(context.Background())
	require.NoError(t, err)

	first, err := idx.Deployment(c.LocalToken)
	require.NoError(t, err)
	require.True(t, idx.cache.Contains(c.LocalToken))
	second, err := idx.Deployment(c.LocalToken)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestSyncRespectsRequestRate(t *testing.T) {
	_, d, idx, _ := setup(t, Config{MaxBlockRange: 1, RequestsPerSecond: 20})
	for i := 0; i < 4; i++ {
		_, err := d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
		require.NoError(t, err)
	}
	start := time.Now()
	head, err := idx.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(4), head)
	// five single-block queries with a burst of one
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.CreateOptimismMintableERC20(alice, remoteA, "A", "A")
	require.NoError(t, err)
	_, err = idx.Sync(ctx)
	require.Error(t, err)
}
