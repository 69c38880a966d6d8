// Package token holds the mintable token instances deployed by the factory.
package token

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	// Version of the OptimismMintableERC20 contract.
	Version = "1.4.0-beta.1"

	// DefaultDecimals matches the ERC20 default.
	DefaultDecimals uint8 = 18
)

// OptimismMintableERC20 is a token instance bound to a bridge and a remote counterpart.
// All of its configuration is fixed at construction.
type OptimismMintableERC20 struct {
	bridge      common.Address
	remoteToken common.Address
	name        string
	symbol      string
	decimals    uint8
}

// New constructs a token with the default number of decimals.
func New(bridge common.Address, remoteToken common.Address, name string, symbol string) *OptimismMintableERC20 {
	return &OptimismMintableERC20{
		bridge:      bridge,
		remoteToken: remoteToken,
		name:        name,
		symbol:      symbol,
		decimals:    DefaultDecimals,
	}
}

// Bridge is the address of the bridge allowed to mint and burn.
func (t *OptimismMintableERC20) Bridge() common.Address { return t.bridge }

// RemoteToken is the address of the counterpart token on the other chain.
func (t *OptimismMintableERC20) RemoteToken() common.Address { return t.remoteToken }

// L1Token is the legacy getter for RemoteToken.
func (t *OptimismMintableERC20) L1Token() common.Address { return t.remoteToken }

// L2Bridge is the legacy getter for Bridge.
func (t *OptimismMintableERC20) L2Bridge() common.Address { return t.bridge }

func (t *OptimismMintableERC20) Name() string { return t.name }

func (t *OptimismMintableERC20) Symbol() string { return t.symbol }

func (t *OptimismMintableERC20) Decimals() uint8 { return t.decimals }

func (t *OptimismMintableERC20) Version() string { return Version }

// Info is the JSON view of a token instance.
type Info struct {
	Address     common.Address `json:"address"`
	Bridge      common.Address `json:"bridge"`
	RemoteToken common.Address `json:"remoteToken"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	Version     string         `json:"version"`
}

func (t *OptimismMintableERC20) Info(addr common.Address) *Info {
	return &Info{
		Address:     addr,
		Bridge:      t.bridge,
		RemoteToken: t.remoteToken,
		Name:        t.name,
		Symbol:      t.symbol,
		Decimals:    t.decimals,
		Version:     Version,
	}
}
