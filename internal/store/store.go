package store

import (
	"context"

	"github.com/me/mcp/pkg/model"
)

// Store records finished batches. It is an audit trail only: nothing in it is
// used to resume or reschedule a batch.
type Store interface {
	RecordBatch(ctx context.Context, r *model.BatchReport) error
	GetBatch(ctx context.Context, id string) (*model.BatchReport, error)
	ListBatches(ctx context.Context, limit int) ([]*model.BatchReport, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
