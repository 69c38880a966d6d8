package service

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/bindings"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/chain"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/indexer"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/metrics"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/token"
)

const Namespace = "tokenfactory"

var ErrIndexerOnly = errors.New("token creation is not served in indexer-only mode")

// invalidParamsError maps factory argument errors to the JSON-RPC invalid params code.
type invalidParamsError struct{ error }

func (e invalidParamsError) ErrorCode() int { return -32602 }

func (e invalidParamsError) Unwrap() error { return e.error }

// CreationResult is the JSON view of a committed create call.
type CreationResult struct {
	LocalToken  common.Address `json:"localToken"`
	RemoteToken common.Address `json:"remoteToken"`
	Deployer    common.Address `json:"deployer"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	Logs        []*types.Log   `json:"logs"`
}

// TokenFactoryAPI is served under the tokenfactory namespace.
type TokenFactoryAPI struct {
	log log.Logger
	m   metrics.Metricer

	factoryAddr common.Address
	// deployment is nil in indexer-only mode
	deployment *factory.Deployment
	// l2 is nil in local mode
	l2  bindings.Caller
	idx *indexer.Indexer
}

func (api *TokenFactoryAPI) Bridge(ctx context.Context) (common.Address, error) {
	if api.deployment != nil {
		return api.deployment.Bridge(), nil
	}
	return bindings.Bridge(ctx, api.l2, api.factoryAddr)
}

func (api *TokenFactoryAPI) Version(ctx context.Context) (string, error) {
	return factory.Version, nil
}

func (api *TokenFactoryAPI) CreateOptimismMintableERC20(ctx context.Context, from common.Address, remoteToken common.Address, name string, symbol string) (*CreationResult, error) {
	return api.create(ctx, factory.MethodCreateOptimismMintableERC20, from, remoteToken, name, symbol)
}

func (api *TokenFactoryAPI) CreateStandardL2Token(ctx context.Context, from common.Address, remoteToken common.Address, name string, symbol string) (*CreationResult, error) {
	return api.create(ctx, factory.MethodCreateStandardL2Token, from, remoteToken, name, symbol)
}

func (api *TokenFactoryAPI) create(ctx context.Context, method string, from common.Address, remoteToken common.Address, name string, symbol string) (result *CreationResult, err error) {
	if api.deployment == nil {
		return nil, ErrIndexerOnly
	}
	onDone := api.m.RecordCreate(method)
	defer func() { onDone(err) }()

	var c *factory.Creation
	if method == factory.MethodCreateStandardL2Token {
		c, err = api.deployment.CreateStandardL2Token(from, remoteToken, name, symbol)
	} else {
		c, err = api.deployment.CreateOptimismMintableERC20(from, remoteToken, name, symbol)
	}
	if errors.Is(err, factory.ErrInvalidArgument) {
		return nil, invalidParamsError{err}
	} else if err != nil {
		api.log.Error("Token creation failed", "method", method, "remoteToken", remoteToken, "err", err)
		return nil, err
	}

	if _, err := api.idx.Sync(ctx); err != nil {
		api.log.Warn("Failed to index new deployment", "localToken", c.LocalToken, "err", err)
	}
	return &CreationResult{
		LocalToken:  c.LocalToken,
		RemoteToken: c.Current.RemoteToken,
		Deployer:    c.Current.Deployer,
		BlockNumber: hexutil.Uint64(c.Receipt.BlockNumber),
		TxHash:      c.Receipt.TxHash,
		Logs:        c.Receipt.Logs,
	}, nil
}

// Token returns the token deployed locally at addr, or null when there is none.
func (api *TokenFactoryAPI) Token(ctx context.Context, addr common.Address) (*token.Info, error) {
	if api.deployment == nil {
		return nil, ErrIndexerOnly
	}
	tok, err := api.deployment.Token(addr)
	if errors.Is(err, chain.ErrNoContract) || errors.Is(err, factory.ErrNotAToken) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return tok.Info(addr), nil
}

// Deployment returns the indexed creation record of a local token, or null when unknown.
func (api *TokenFactoryAPI) Deployment(ctx context.Context, localToken common.Address) (*indexer.Deployment, error) {
	d, err := api.idx.Deployment(localToken)
	if errors.Is(err, indexer.ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (api *TokenFactoryAPI) DeploymentsByRemote(ctx context.Context, remoteToken common.Address) ([]*indexer.Deployment, error) {
	out, err := api.idx.DeploymentsByRemote(remoteToken)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*indexer.Deployment{}
	}
	return out, nil
}

// IndexedHead returns the last indexed block number, or null before the first sync.
func (api *TokenFactoryAPI) IndexedHead(ctx context.Context) (*hexutil.Uint64, error) {
	head, err := api.idx.Head()
	if errors.Is(err, indexer.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	out := hexutil.Uint64(head)
	return &out, nil
}
