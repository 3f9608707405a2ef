package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/models"
)

// memoryRepo collects inserted entries for assertions.
type memoryRepo struct {
	mu   sync.Mutex
	logs []*models.QueryAuditLog
	err  error
}

func (r *memoryRepo) Insert(_ context.Context, log *models.QueryAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *memoryRepo) GetRecent(context.Context, int) ([]*models.QueryAuditLog, error) {
	return nil, nil
}

func (r *memoryRepo) CountByTier(context.Context) (map[string]int, error) {
	return nil, nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

func TestRecordPersistsEntries(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), Config{BufferSize: 16, WorkerCount: 2})
	require.NoError(t, svc.Start())

	for i := 0; i < 5; i++ {
		svc.Record(models.NewQueryAuditLog("query", "dataset_match", 0.9))
	}

	require.NoError(t, svc.Stop(2*time.Second))
	assert.Equal(t, 5, repo.count())
}

func TestRecordBeforeStartIsNoop(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), DefaultConfig())

	svc.Record(models.NewQueryAuditLog("query", "rag", 0.8))

	assert.Zero(t, repo.count())
}

func TestStartTwiceFails(t *testing.T) {
	svc := NewService(&memoryRepo{}, zap.NewNop(), DefaultConfig())
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())
	require.NoError(t, svc.Stop(time.Second))
}

func TestStopWithoutStartFails(t *testing.T) {
	svc := NewService(&memoryRepo{}, zap.NewNop(), DefaultConfig())
	assert.Error(t, svc.Stop(time.Second))
}

func TestStopDrainsPendingEntries(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, zap.NewNop(), Config{BufferSize: 128, WorkerCount: 1})
	require.NoError(t, svc.Start())

	for i := 0; i < 50; i++ {
		svc.Record(models.NewQueryAuditLog("query", "generative", 0.72))
	}

	require.NoError(t, svc.Stop(5*time.Second))
	assert.Equal(t, 50, repo.count())
}

func TestGetStats(t *testing.T) {
	svc := NewService(&memoryRepo{}, zap.NewNop(), Config{BufferSize: 8, WorkerCount: 3})
	require.NoError(t, svc.Start())
	defer svc.Stop(time.Second)

	stats := svc.GetStats()
	assert.Equal(t, 8, stats.BufferSize)
	assert.Equal(t, 3, stats.WorkerCount)
	assert.True(t, stats.Started)
	assert.Zero(t, stats.Dropped)
}
