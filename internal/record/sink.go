// Package record persists extracted certificate records.
//
// The primary sink is an append-only CSV log matching the fixed field
// order of the record schema. A Google Sheets sink is available for
// deployments that want the log in a shared spreadsheet.
package record

import (
	"context"

	"certverify/pkg/models"
)

// Sink appends one row per processed record to a persistent tabular log.
// Implementations must serialize concurrent appends.
type Sink interface {
	Append(ctx context.Context, record models.Record) error
}

// MultiSink fans each append out to every sink. All sinks are attempted;
// the first error encountered is returned.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Append(ctx context.Context, record models.Record) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Append(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
