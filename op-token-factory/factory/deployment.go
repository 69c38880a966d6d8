package factory

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/chain"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/token"
)

var ErrNotAToken = errors.New("not a mintable token")

// Creation is the outcome of a committed create call.
type Creation struct {
	LocalToken common.Address
	Legacy     *StandardL2TokenCreated
	Current    *OptimismMintableERC20Created
	Receipt    *chain.Receipt
}

// Deployment is a Factory placed on a chain at a fixed address.
type Deployment struct {
	chain   *chain.Chain
	addr    common.Address
	factory *Factory
}

// Deploy places f on ch at addr.
func Deploy(ch *chain.Chain, addr common.Address, f *Factory) (*Deployment, error) {
	if err := ch.Deploy(addr, f); err != nil {
		return nil, fmt.Errorf("failed to place factory: %w", err)
	}
	return &Deployment{chain: ch, addr: addr, factory: f}, nil
}

func (d *Deployment) Address() common.Address {
	return d.addr
}

func (d *Deployment) Bridge() common.Address {
	return d.factory.Bridge()
}

func (d *Deployment) Version() string {
	return d.factory.Version()
}

func (d *Deployment) CreateOptimismMintableERC20(from common.Address, remoteToken common.Address, name string, symbol string) (*Creation, error) {
	return d.execute(from, func(call *chain.Call) (common.Address, error) {
		return d.factory.CreateOptimismMintableERC20(call, remoteToken, name, symbol)
	})
}

func (d *Deployment) CreateStandardL2Token(from common.Address, remoteToken common.Address, name string, symbol string) (*Creation, error) {
	return d.execute(from, func(call *chain.Call) (common.Address, error) {
		return d.factory.CreateStandardL2Token(call, remoteToken, name, symbol)
	})
}

func (d *Deployment) execute(from common.Address, fn func(call *chain.Call) (common.Address, error)) (*Creation, error) {
	var localToken common.Address
	receipt, err := d.chain.Execute(from, d.addr, func(call *chain.Call) error {
		var err error
		localToken, err = fn(call)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &Creation{LocalToken: localToken, Receipt: receipt}
	for _, l := range receipt.Logs {
		ev, err := ParseLog(l)
		if err != nil {
			return nil, fmt.Errorf("unexpected log in creation receipt: %w", err)
		}
		switch ev := ev.(type) {
		case *StandardL2TokenCreated:
			out.Legacy = ev
		case *OptimismMintableERC20Created:
			out.Current = ev
		}
	}
	return out, nil
}

// Token returns the token instance deployed at addr.
func (d *Deployment) Token(addr common.Address) (*token.OptimismMintableERC20, error) {
	c, ok := d.chain.Contract(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", chain.ErrNoContract, addr)
	}
	tok, ok := c.(*token.OptimismMintableERC20)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAToken, addr)
	}
	return tok, nil
}
