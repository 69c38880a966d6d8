package indexer

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNotFound = errors.New("not found")

var (
	headKey          = []byte("head")
	deploymentPrefix = []byte("d")
	remotePrefix     = []byte("r")
)

// Deployment is the record of one token creation, assembled from the factory events.
type Deployment struct {
	LocalToken  common.Address `json:"localToken"`
	RemoteToken common.Address `json:"remoteToken"`
	// Deployer is zero when only the legacy event was seen.
	Deployer    common.Address `json:"deployer"`
	BlockNumber uint64         `json:"blockNumber"`
	TxHash      common.Hash    `json:"txHash"`
	LogIndex    uint           `json:"logIndex"`

	LegacyEvent  bool `json:"legacyEvent"`
	CurrentEvent bool `json:"currentEvent"`
}

func deploymentKey(local common.Address) []byte {
	return append(append([]byte{}, deploymentPrefix...), local.Bytes()...)
}

func remoteKey(remote common.Address, local common.Address) []byte {
	k := append(append([]byte{}, remotePrefix...), remote.Bytes()...)
	return append(k, local.Bytes()...)
}

// upperBound returns the smallest key greater than every key starting with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff, no upper bound
}

// store persists deployment records and the synced height in pebble.
type store struct {
	db *pebble.DB
}

// openStore opens the store at dir, or an in-memory store when dir is empty.
func openStore(dir string) (*store, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db %q: %w", dir, err)
	}
	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func (s *store) get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, v...), nil
}

// Head returns the last synced block number.
func (s *store) Head() (uint64, error) {
	v, err := s.get(headKey)
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt head entry of %d bytes", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *store) Deployment(local common.Address) (*Deployment, error) {
	v, err := s.get(deploymentKey(local))
	if err != nil {
		return nil, err
	}
	var d Deployment
	if err := json.Unmarshal(v, &d); err != nil {
		return nil, fmt.Errorf("failed to decode deployment %s: %w", local, err)
	}
	return &d, nil
}

// DeploymentsByRemote returns the deployments for remote in local token address order.
func (s *store) DeploymentsByRemote(remote common.Address) ([]*Deployment, error) {
	prefix := append(append([]byte{}, remotePrefix...), remote.Bytes()...)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var out []*Deployment
	for iter.First(); iter.Valid(); iter.Next() {
		local := common.BytesToAddress(iter.Key()[len(prefix):])
		d, err := s.Deployment(local)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, iter.Error()
}

// commit writes the deployments together with the new head.
func (s *store) commit(deployments []*Deployment, head uint64) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, d := range deployments {
		v, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode deployment %s: %w", d.LocalToken, err)
		}
		if err := batch.Set(deploymentKey(d.LocalToken), v, nil); err != nil {
			return err
		}
		if err := batch.Set(remoteKey(d.RemoteToken, d.LocalToken), nil, nil); err != nil {
			return err
		}
	}
	if err := batch.Set(headKey, binary.BigEndian.AppendUint64(nil, head), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}
