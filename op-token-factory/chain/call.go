package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Call is the environment of a single executing call.
// All effects are buffered here until the chain commits the call.
type Call struct {
	chain  *Chain
	caller common.Address
	self   common.Address

	nonces  map[common.Address]uint64
	created map[common.Address]any
	order   []common.Address
	logs    []*types.Log
}

// Caller is the immediate sender of the call.
func (c *Call) Caller() common.Address {
	return c.caller
}

// Address is the address of the contract being executed.
func (c *Call) Address() common.Address {
	return c.self
}

func (c *Call) nonce(addr common.Address) uint64 {
	if n, ok := c.nonces[addr]; ok {
		return n
	}
	return c.chain.accountNonce(addr)
}

// Create deploys contract at the CREATE address derived from the executing contract and its nonce.
func (c *Call) Create(contract any) (common.Address, error) {
	nonce := c.nonce(c.self)
	addr := crypto.CreateAddress(c.self, nonce)
	if _, ok := c.created[addr]; ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrAddressCollision, addr)
	}
	if acc, ok := c.chain.accounts[addr]; ok && (acc.contract != nil || acc.nonce != 0) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrAddressCollision, addr)
	}
	c.nonces[c.self] = nonce + 1
	c.created[addr] = contract
	c.order = append(c.order, addr)
	return addr, nil
}

// EmitLog records a log of the executing contract.
func (c *Call) EmitLog(topics []common.Hash, data []byte) {
	c.logs = append(c.logs, &types.Log{
		Address: c.self,
		Topics:  topics,
		Data:    data,
	})
}

// Contract looks up a contract, including the ones created earlier in this call.
func (c *Call) Contract(addr common.Address) (any, bool) {
	if v, ok := c.created[addr]; ok {
		return v, true
	}
	acc, ok := c.chain.accounts[addr]
	if !ok || acc.contract == nil {
		return nil, false
	}
	return acc.contract, true
}
