package metrics

import (
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/indexer"
)

type Metricer interface {
	RecordInfo(version string)
	RecordUp()

	// RecordCreate records a create call on the given entry point.
	RecordCreate(entrypoint string) (onDone func(err error))

	indexer.Metrics
}
