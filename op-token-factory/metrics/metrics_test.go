package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	opmetrics "github.com/mantlenetworkio/mantle-token-factory/op-service/metrics"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

func TestTokenFactoryMetrics(t *testing.T) {
	m := NewMetrics("")

	version := "v1.2.3"
	m.RecordInfo(version)
	m.RecordUp()

	m.RecordCreate("createOptimismMintableERC20")(nil)
	m.RecordCreate("createOptimismMintableERC20")(nil)
	m.RecordCreate("createStandardL2Token")(fmt.Errorf("rejected: %w", factory.ErrInvalidArgument))
	m.RecordCreate("createStandardL2Token")(errors.New("boom"))
	m.RecordIndexedDeployments(2)
	m.RecordIndexedDeployments(0)
	m.RecordIndexerHead(42)

	c := opmetrics.NewMetricChecker(t, m.Registry())
	prefix := Namespace + "_default_"

	calls := prefix + "create_calls_total"
	require.Equal(t, 2.0, c.Value(calls, map[string]string{
		"entrypoint": "createOptimismMintableERC20", "result": "success",
	}))
	require.Equal(t, 1.0, c.Value(calls, map[string]string{
		"entrypoint": "createStandardL2Token", "result": "invalid_argument",
	}))
	require.Equal(t, 1.0, c.Value(calls, map[string]string{
		"entrypoint": "createStandardL2Token", "result": "failed",
	}))
	require.Equal(t, uint64(2), c.SampleCount(prefix+"create_duration_seconds", map[string]string{
		"entrypoint": "createOptimismMintableERC20",
	}))

	require.Equal(t, 2.0, c.Value(prefix+"indexed_deployments_total", nil))
	require.Equal(t, 42.0, c.Value(prefix+"indexer_head", nil))
	require.Equal(t, 1.0, c.Value(prefix+"up", nil))
	require.Equal(t, 1.0, c.Value(prefix+"info", map[string]string{"version": version}))
	require.Contains(t, c.Dump(), prefix+"indexer_head")
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	m.RecordInfo("1234")
	m.RecordUp()
	m.RecordCreate("createOptimismMintableERC20")(errors.New("test err"))
	m.RecordIndexedDeployments(1)
	m.RecordIndexerHead(1)
}
