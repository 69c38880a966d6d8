package factory

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrUnknownEvent = errors.New("unknown factory event")
	ErrMalformedLog = errors.New("malformed factory log")
)

// Event is a typed factory notification record.
type Event interface {
	EventName() string
	// Encode returns the log topics and data of the event.
	Encode() ([]common.Hash, []byte, error)
}

// StandardL2TokenCreated is the legacy creation event, kept for older consumers.
type StandardL2TokenCreated struct {
	RemoteToken common.Address
	LocalToken  common.Address
}

// OptimismMintableERC20Created is the current creation event.
type OptimismMintableERC20Created struct {
	LocalToken  common.Address
	RemoteToken common.Address
	Deployer    common.Address
}

var (
	StandardL2TokenCreatedTopic       = factoryABI.Events[EventStandardL2TokenCreated].ID
	OptimismMintableERC20CreatedTopic = factoryABI.Events[EventOptimismMintableERC20Created].ID
)

func (e *StandardL2TokenCreated) EventName() string {
	return EventStandardL2TokenCreated
}

func (e *StandardL2TokenCreated) Encode() ([]common.Hash, []byte, error) {
	return encodeEvent(EventStandardL2TokenCreated, []any{e.RemoteToken}, []any{e.LocalToken})
}

func (e *OptimismMintableERC20Created) EventName() string {
	return EventOptimismMintableERC20Created
}

func (e *OptimismMintableERC20Created) Encode() ([]common.Hash, []byte, error) {
	return encodeEvent(EventOptimismMintableERC20Created, []any{e.LocalToken}, []any{e.RemoteToken}, e.Deployer)
}

// encodeEvent builds topics from the indexed args and abi-encodes the remaining args as data.
func encodeEvent(name string, first []any, second []any, data ...any) ([]common.Hash, []byte, error) {
	ev := factoryABI.Events[name]
	rest, err := abi.MakeTopics(first, second)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make %s topics: %w", name, err)
	}
	topics := []common.Hash{ev.ID}
	for _, t := range rest {
		topics = append(topics, t[0])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pack %s data: %w", name, err)
	}
	return topics, packed, nil
}

func parseEvent(name string, l *types.Log, out any) error {
	ev := factoryABI.Events[name]
	if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
		return fmt.Errorf("%w: not a %s log", ErrUnknownEvent, name)
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(l.Topics) != len(indexed)+1 {
		return fmt.Errorf("%w: %s expects %d topics, got %d", ErrMalformedLog, name, len(indexed)+1, len(l.Topics))
	}
	if len(l.Data) > 0 {
		if err := factoryABI.UnpackIntoInterface(out, name, l.Data); err != nil {
			return fmt.Errorf("%w: %s data: %w", ErrMalformedLog, name, err)
		}
	} else if len(ev.Inputs.NonIndexed()) > 0 {
		return fmt.Errorf("%w: %s is missing data", ErrMalformedLog, name)
	}
	if err := abi.ParseTopics(out, indexed, l.Topics[1:]); err != nil {
		return fmt.Errorf("%w: %s topics: %w", ErrMalformedLog, name, err)
	}
	return nil
}

func ParseStandardL2TokenCreated(l *types.Log) (*StandardL2TokenCreated, error) {
	var out StandardL2TokenCreated
	if err := parseEvent(EventStandardL2TokenCreated, l, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ParseOptimismMintableERC20Created(l *types.Log) (*OptimismMintableERC20Created, error) {
	var out OptimismMintableERC20Created
	if err := parseEvent(EventOptimismMintableERC20Created, l, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseLog decodes any factory event. Logs of other events return ErrUnknownEvent.
func ParseLog(l *types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	switch l.Topics[0] {
	case StandardL2TokenCreatedTopic:
		return ParseStandardL2TokenCreated(l)
	case OptimismMintableERC20CreatedTopic:
		return ParseOptimismMintableERC20Created(l)
	default:
		return nil, fmt.Errorf("%w: topic %s", ErrUnknownEvent, l.Topics[0])
	}
}
