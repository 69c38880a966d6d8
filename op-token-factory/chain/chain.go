// Package chain is an in-memory L2 execution environment.
//
// Every call executed through Chain.Execute runs to completion under the chain lock
// before any other call starts, and its effects (created contracts, nonce bumps, logs)
// are committed all at once, or not at all when the call fails.
// Each committed call is sealed into its own block.
package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrAddressCollision = errors.New("contract address collision")
	ErrNoContract       = errors.New("no contract at address")
	ErrUnknownBlock     = errors.New("unknown block")
)

// contractStartNonce is the nonce of a freshly created contract account (EIP-161).
const contractStartNonce = 1

type account struct {
	nonce    uint64
	contract any
}

// Receipt is the outcome of a committed call.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	From        common.Address
	To          common.Address
	// Created lists the addresses of the contracts created by the call, in creation order.
	Created []common.Address
	Logs    []*types.Log
}

type block struct {
	number     uint64
	hash       common.Hash
	parentHash common.Hash
	receipt    *Receipt
}

type Chain struct {
	mu sync.Mutex

	log      log.Logger
	accounts map[common.Address]*account
	blocks   []*block
}

func New(logger log.Logger) *Chain {
	genesis := &block{number: 0, hash: crypto.Keccak256Hash([]byte("genesis"))}
	return &Chain{
		log:      logger,
		accounts: make(map[common.Address]*account),
		blocks:   []*block{genesis},
	}
}

// Deploy places a contract at a fixed address, the way predeploys are placed in genesis.
func (c *Chain) Deploy(addr common.Address, contract any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if acc, ok := c.accounts[addr]; ok && acc.contract != nil {
		return fmt.Errorf("%w: %s", ErrAddressCollision, addr)
	}
	c.accounts[addr] = &account{nonce: contractStartNonce, contract: contract}
	c.log.Info("Placed contract", "addr", addr, "type", fmt.Sprintf("%T", contract))
	return nil
}

// Contract returns the contract deployed at addr, if any.
func (c *Chain) Contract(addr common.Address) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.accounts[addr]
	if !ok || acc.contract == nil {
		return nil, false
	}
	return acc.contract, true
}

func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if acc, ok := c.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

// Execute runs fn as a call from `from` to the contract at `to`.
// If fn returns an error nothing is committed and the error is returned as-is.
func (c *Chain) Execute(from common.Address, to common.Address, fn func(call *Call) error) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.accounts[to]
	if !ok || target.contract == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, to)
	}

	call := &Call{
		chain:   c,
		caller:  from,
		self:    to,
		nonces:  make(map[common.Address]uint64),
		created: make(map[common.Address]any),
	}
	if err := fn(call); err != nil {
		c.log.Debug("Call reverted", "from", from, "to", to, "err", err)
		return nil, err
	}
	return c.commit(call), nil
}

func (c *Chain) accountNonce(addr common.Address) uint64 {
	if acc, ok := c.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

// commit applies the buffered call effects and seals them into a new block. Requires c.mu.
func (c *Chain) commit(call *Call) *Receipt {
	senderNonce := c.accountNonce(call.caller)
	txHash := crypto.Keccak256Hash(call.caller.Bytes(), call.self.Bytes(), binary.BigEndian.AppendUint64(nil, senderNonce))

	sender, ok := c.accounts[call.caller]
	if !ok {
		sender = &account{}
		c.accounts[call.caller] = sender
	}
	sender.nonce++

	for addr, nonce := range call.nonces {
		c.accounts[addr].nonce = nonce
	}
	for _, addr := range call.order {
		c.accounts[addr] = &account{nonce: contractStartNonce, contract: call.created[addr]}
	}

	parent := c.blocks[len(c.blocks)-1]
	number := parent.number + 1
	blockHash := crypto.Keccak256Hash(parent.hash.Bytes(), binary.BigEndian.AppendUint64(nil, number), txHash.Bytes())

	for i, l := range call.logs {
		l.BlockNumber = number
		l.BlockHash = blockHash
		l.TxHash = txHash
		l.TxIndex = 0
		l.Index = uint(i)
	}
	receipt := &Receipt{
		TxHash:      txHash,
		BlockNumber: number,
		BlockHash:   blockHash,
		From:        call.caller,
		To:          call.self,
		Created:     call.order,
		Logs:        call.logs,
	}
	c.blocks = append(c.blocks, &block{number: number, hash: blockHash, parentHash: parent.hash, receipt: receipt})
	c.log.Debug("Sealed block", "number", number, "hash", blockHash, "tx", txHash, "logs", len(call.logs))
	return receipt
}

// BlockNumber returns the number of the latest sealed block.
func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[len(c.blocks)-1].number, nil
}

// Receipt returns the receipt of the call sealed in block number, if that block holds one.
func (c *Chain) Receipt(number uint64) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if number >= uint64(len(c.blocks)) || c.blocks[number].receipt == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, number)
	}
	return c.blocks[number].receipt, nil
}

// FilterLogs returns the logs matching the query, in chain order.
// A nil FromBlock means genesis and a nil ToBlock means the latest block.
func (c *Chain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	head := c.blocks[len(c.blocks)-1].number
	from, to := uint64(0), head
	if q.BlockHash != nil {
		b := c.blockByHash(*q.BlockHash)
		if b == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, *q.BlockHash)
		}
		from, to = b.number, b.number
	} else {
		if q.FromBlock != nil {
			from = toBlockNumber(q.FromBlock, head)
		}
		if q.ToBlock != nil {
			to = toBlockNumber(q.ToBlock, head)
		}
	}
	if to > head {
		to = head
	}

	var out []types.Log
	for n := from; n <= to && n <= head; n++ {
		r := c.blocks[n].receipt
		if r == nil {
			continue
		}
		for _, l := range r.Logs {
			if matchLog(l, q.Addresses, q.Topics) {
				out = append(out, *l)
			}
		}
	}
	return out, nil
}

func (c *Chain) blockByHash(h common.Hash) *block {
	for _, b := range c.blocks {
		if b.hash == h {
			return b
		}
	}
	return nil
}

// toBlockNumber resolves negative rpc block-number tags (latest, pending, ...) to the head.
func toBlockNumber(n *big.Int, head uint64) uint64 {
	if n.Sign() < 0 || !n.IsUint64() {
		return head
	}
	return n.Uint64()
}

func matchLog(l *types.Log, addresses []common.Address, topics [][]common.Hash) bool {
	if len(addresses) > 0 {
		found := false
		for _, a := range addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(topics) > len(l.Topics) {
		return false
	}
	for i, sub := range topics {
		if len(sub) == 0 {
			continue
		}
		match := false
		for _, t := range sub {
			if t == l.Topics[i] {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}
