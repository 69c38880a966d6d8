package bindings

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantlenetworkio/mantle-token-factory/op-service/predeploys"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

var remote = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestCreateCalldata(t *testing.T) {
	for _, tc := range []struct {
		legacy    bool
		signature string
	}{
		{false, "createOptimismMintableERC20(address,string,string)"},
		{true, "createStandardL2Token(address,string,string)"},
	} {
		t.Run(tc.signature, func(t *testing.T) {
			data, err := CreateCalldata(tc.legacy, remote, "Wrapped Foo", "wFOO")
			require.NoError(t, err)
			require.Equal(t, crypto.Keccak256([]byte(tc.signature))[:4], data[:4])

			factoryABI := factory.ABI()
			method, err := factoryABI.MethodById(data[:4])
			require.NoError(t, err)
			args, err := method.Inputs.Unpack(data[4:])
			require.NoError(t, err)
			require.Equal(t, []any{remote, "Wrapped Foo", "wFOO"}, args)
		})
	}
}

func TestUnpackAddress(t *testing.T) {
	local := common.HexToAddress("0x2222222222222222222222222222222222222222")
	out, err := factory.ABI().Methods[factory.MethodCreateOptimismMintableERC20].Outputs.Pack(local)
	require.NoError(t, err)
	got, err := UnpackAddress(factory.MethodCreateOptimismMintableERC20, out)
	require.NoError(t, err)
	require.Equal(t, local, got)

	_, err = UnpackAddress(factory.MethodBridge, []byte{0x01})
	require.Error(t, err)
}

func TestTokenFromReceipt(t *testing.T) {
	factoryAddr := predeploys.OptimismMintableERC20FactoryAddr
	local := common.HexToAddress("0x2222222222222222222222222222222222222222")
	deployer := common.HexToAddress("0xa11ce00000000000000000000000000000000000")

	legacyTopics, legacyData, err := (&factory.StandardL2TokenCreated{RemoteToken: remote, LocalToken: local}).Encode()
	require.NoError(t, err)
	ev := &factory.OptimismMintableERC20Created{LocalToken: local, RemoteToken: remote, Deployer: deployer}
	topics, data, err := ev.Encode()
	require.NoError(t, err)

	receipt := &types.Receipt{Logs: []*types.Log{
		{Address: factoryAddr, Topics: legacyTopics, Data: legacyData},
		{Address: common.HexToAddress("0xdead"), Topics: topics, Data: data},
		{Address: factoryAddr, Topics: topics, Data: data},
	}}
	got, err := TokenFromReceipt(receipt, factoryAddr)
	require.NoError(t, err)
	require.Equal(t, ev, got)

	_, err = TokenFromReceipt(&types.Receipt{Logs: receipt.Logs[:2]}, factoryAddr)
	require.ErrorIs(t, err, ErrNoCreationEvent)
}

type stubCaller struct {
	bridge common.Address
	err    error
}

func (s *stubCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	if string(call.Data) != string(BridgeCalldata()) {
		return nil, errors.New("unexpected call")
	}
	return factory.ABI().Methods[factory.MethodBridge].Outputs.Pack(s.bridge)
}

func TestBridge(t *testing.T) {
	ctx := context.Background()
	got, err := Bridge(ctx, &stubCaller{bridge: predeploys.L2StandardBridgeAddr}, predeploys.OptimismMintableERC20FactoryAddr)
	require.NoError(t, err)
	require.Equal(t, predeploys.L2StandardBridgeAddr, got)

	rpcErr := errors.New("connection refused")
	_, err = Bridge(ctx, &stubCaller{err: rpcErr}, predeploys.OptimismMintableERC20FactoryAddr)
	require.ErrorIs(t, err, rpcErr)
}
