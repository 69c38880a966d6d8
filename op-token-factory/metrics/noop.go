package metrics

type NoopMetrics struct{}

func (n NoopMetrics) RecordInfo(version string) {}

func (n NoopMetrics) RecordUp() {}

func (n NoopMetrics) RecordCreate(entrypoint string) (onDone func(err error)) {
	return func(err error) {}
}

func (n NoopMetrics) RecordIndexedDeployments(count int) {}

func (n NoopMetrics) RecordIndexerHead(head uint64) {}

var _ Metricer = NoopMetrics{}
