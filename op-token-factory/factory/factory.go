// Package factory deploys OptimismMintableERC20 tokens on behalf of callers.
package factory

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/token"
)

// Version of the OptimismMintableERC20Factory contract.
const Version = "1.9.0"

// ErrInvalidArgument is the error kind of rejected factory calls.
var ErrInvalidArgument = errors.New("invalid argument")

var errMissingRemoteToken = fmt.Errorf("%w: OptimismMintableERC20Factory: must provide remote token address", ErrInvalidArgument)

// Env is the execution environment of a single factory call.
type Env interface {
	Caller() common.Address
	// Create deploys contract as a new child of the executing contract and returns its address.
	Create(contract any) (common.Address, error)
	EmitLog(topics []common.Hash, data []byte)
}

// TokenConstructor builds the token instance that the factory deploys.
type TokenConstructor func(bridge common.Address, remoteToken common.Address, name string, symbol string) (any, error)

func defaultTokenConstructor(bridge common.Address, remoteToken common.Address, name string, symbol string) (any, error) {
	return token.New(bridge, remoteToken, name, symbol), nil
}

type Option func(f *Factory)

// WithTokenConstructor replaces the token constructor, e.g. to deploy a different token implementation.
func WithTokenConstructor(fn TokenConstructor) Option {
	return func(f *Factory) {
		f.newToken = fn
	}
}

// Factory holds only the bridge address, fixed at construction.
type Factory struct {
	log      log.Logger
	bridge   common.Address
	newToken TokenConstructor
}

func New(logger log.Logger, bridge common.Address, opts ...Option) *Factory {
	f := &Factory{
		log:      logger,
		bridge:   bridge,
		newToken: defaultTokenConstructor,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Bridge returns the bridge every deployed token is bound to.
func (f *Factory) Bridge() common.Address {
	return f.bridge
}

func (f *Factory) Version() string {
	return Version
}

// CreateStandardL2Token is the legacy entry point. It behaves exactly like CreateOptimismMintableERC20.
func (f *Factory) CreateStandardL2Token(env Env, remoteToken common.Address, name string, symbol string) (common.Address, error) {
	return f.CreateOptimismMintableERC20(env, remoteToken, name, symbol)
}

// CreateOptimismMintableERC20 deploys a new token for remoteToken and emits the legacy
// StandardL2TokenCreated event followed by the OptimismMintableERC20Created event.
// Every successful call deploys a new instance, identical arguments included.
func (f *Factory) CreateOptimismMintableERC20(env Env, remoteToken common.Address, name string, symbol string) (common.Address, error) {
	if remoteToken == (common.Address{}) {
		return common.Address{}, errMissingRemoteToken
	}

	instance, err := f.newToken(f.bridge, remoteToken, name, symbol)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to construct token: %w", err)
	}
	localToken, err := env.Create(instance)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy token: %w", err)
	}

	// event encoding happens before emission so a failure cannot leave a single event behind
	events := []Event{
		&StandardL2TokenCreated{RemoteToken: remoteToken, LocalToken: localToken},
		&OptimismMintableERC20Created{LocalToken: localToken, RemoteToken: remoteToken, Deployer: env.Caller()},
	}
	type encoded struct {
		topics []common.Hash
		data   []byte
	}
	logs := make([]encoded, 0, len(events))
	for _, ev := range events {
		topics, data, err := ev.Encode()
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to encode %s: %w", ev.EventName(), err)
		}
		logs = append(logs, encoded{topics: topics, data: data})
	}
	for _, l := range logs {
		env.EmitLog(l.topics, l.data)
	}

	f.log.Info("Created token", "remoteToken", remoteToken, "localToken", localToken,
		"deployer", env.Caller(), "name", name, "symbol", symbol)
	return localToken, nil
}
