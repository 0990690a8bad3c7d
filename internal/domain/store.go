package domain

import "context"

// UpdateStore persists updates and answers the lab report queries.
// OnCount and FrequencyReport return an error on failure, never a zero
// value that could be mistaken for an empty result.
type UpdateStore interface {
	Record(ctx context.Context, update Update) bool
	FrequencyReport(ctx context.Context) ([]NumberFrequency, error)
	OnCount(ctx context.Context, field string) (int64, error)
	Close() error
}
