// Package volume persists rolling volume accumulators per (asset, sender).
//
// The store only holds state; window rollover and cap math live in the
// engine, which serializes access per (asset, sender) and commits an updated
// accumulator only when the overall evaluation authorizes the transfer.
package volume

import (
	"context"

	id "crest/pkg/domain"
)

// Usage is the rolling accumulator for one (asset, sender) pair. LastTs is
// the timestamp of the last committed transfer; window resets are computed
// by comparing it with the incoming timestamp, never from wall-clock polling.
type Usage struct {
	DailyUsed   uint64 `json:"daily_used"`
	MonthlyUsed uint64 `json:"monthly_used"`
	LastTs      int64  `json:"last_ts"`
}

// Store is the accumulator port. Get returns a zero Usage when no transfers
// have been recorded.
type Store interface {
	Get(ctx context.Context, asset id.AssetID, sender id.Identity) (Usage, error)
	Put(ctx context.Context, asset id.AssetID, sender id.Identity, usage Usage) error
}
