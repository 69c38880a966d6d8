package token

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
)

func TestNew(t *testing.T) {
	bridge := common.HexToAddress("0x4200000000000000000000000000000000000010")
	remote := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tok := New(bridge, remote, "Wrapped Foo", "wFOO")

	require.Equal(t, bridge, tok.Bridge())
	require.Equal(t, bridge, tok.L2Bridge())
	require.Equal(t, remote, tok.RemoteToken())
	require.Equal(t, remote, tok.L1Token())
	require.Equal(t, "Wrapped Foo", tok.Name())
	require.Equal(t, "wFOO", tok.Symbol())
	require.Equal(t, DefaultDecimals, tok.Decimals())
	require.Equal(t, Version, tok.Version())

	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	info := tok.Info(addr)
	require.Equal(t, &Info{
		Address:     addr,
		Bridge:      bridge,
		RemoteToken: remote,
		Name:        "Wrapped Foo",
		Symbol:      "wFOO",
		Decimals:    18,
		Version:     Version,
	}, info)
}
