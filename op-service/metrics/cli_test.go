package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIConfigCheck(t *testing.T) {
	cfg := DefaultCLIConfig()
	require.NoError(t, cfg.Check())

	cfg.Enabled = true
	cfg.ListenPort = 70000
	require.ErrorIs(t, cfg.Check(), ErrInvalidPort)

	cfg.Enabled = false
	require.NoError(t, cfg.Check(), "port is not checked when disabled")
}
