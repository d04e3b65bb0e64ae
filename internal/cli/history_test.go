package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/me/mcp/internal/logging"
	"github.com/me/mcp/internal/store"
	"github.com/me/mcp/pkg/model"
	"github.com/stretchr/testify/assert"
)

// memStore is an in-memory store.Store.
type memStore struct {
	batches map[string]*model.BatchReport
	err     error
}

var _ store.Store = (*memStore)(nil)

func (m *memStore) RecordBatch(_ context.Context, r *model.BatchReport) error {
	if m.err != nil {
		return m.err
	}
	m.batches[r.ID] = r
	return nil
}

func (m *memStore) GetBatch(_ context.Context, id string) (*model.BatchReport, error) {
	return m.batches[id], nil
}

func (m *memStore) ListBatches(context.Context, int) ([]*model.BatchReport, error) {
	var out []*model.BatchReport
	for _, b := range m.batches {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) Close() error                  { return nil }
func (m *memStore) Migrate(context.Context) error { return nil }

func TestSaveBatch(t *testing.T) {
	logger = logging.Discard()
	rep := &model.BatchReport{ID: "batch_mem"}

	st := &memStore{batches: map[string]*model.BatchReport{}}
	assert.True(t, saveBatch(st, rep))
	assert.Same(t, rep, st.batches["batch_mem"])

	failing := &memStore{batches: map[string]*model.BatchReport{}, err: errors.New("disk full")}
	assert.False(t, saveBatch(failing, rep))
	assert.Empty(t, failing.batches)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much-too-long-source.txt", 10, "much-to..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight must not cut, got %q", got)
	}
}
