// Package bindings encodes calls to, and decodes results from, an OptimismMintableERC20Factory
// deployed on a real chain.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

var ErrNoCreationEvent = errors.New("no token creation event in receipt")

// CreateCalldata encodes a call to createOptimismMintableERC20, or to the legacy
// createStandardL2Token entry point when legacy is set.
func CreateCalldata(legacy bool, remoteToken common.Address, name string, symbol string) ([]byte, error) {
	method := factory.MethodCreateOptimismMintableERC20
	if legacy {
		method = factory.MethodCreateStandardL2Token
	}
	data, err := factory.ABI().Pack(method, remoteToken, name, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	return data, nil
}

func BridgeCalldata() []byte {
	data, err := factory.ABI().Pack(factory.MethodBridge)
	if err != nil {
		panic(err) // no arguments, cannot fail
	}
	return data
}

// UnpackAddress decodes the single address returned by the create and bridge methods.
func UnpackAddress(method string, data []byte) (common.Address, error) {
	out, err := factory.ABI().Unpack(method, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("expected 1 return value from %s, got %d", method, len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s return type %T", method, out[0])
	}
	return addr, nil
}

// TokenFromReceipt extracts the created token from the OptimismMintableERC20Created event
// that factoryAddr emitted in the receipt.
func TokenFromReceipt(receipt *types.Receipt, factoryAddr common.Address) (*factory.OptimismMintableERC20Created, error) {
	for _, l := range receipt.Logs {
		if l.Address != factoryAddr || len(l.Topics) == 0 || l.Topics[0] != factory.OptimismMintableERC20CreatedTopic {
			continue
		}
		return factory.ParseOptimismMintableERC20Created(l)
	}
	return nil, ErrNoCreationEvent
}

// Caller is the read-only part of an eth client.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Bridge reads the configured bridge of the factory at factoryAddr.
func Bridge(ctx context.Context, client Caller, factoryAddr common.Address) (common.Address, error) {
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &factoryAddr, Data: BridgeCalldata()}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to call bridge(): %w", err)
	}
	return UnpackAddress(factory.MethodBridge, out)
}
