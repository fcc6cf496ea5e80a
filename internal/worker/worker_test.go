package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPipeline for testing
type MockPipeline struct {
	mu             sync.Mutex
	pending        []*models.Document
	failIDs        map[int64]bool
	claimErr       error
	claimLimits    []int
	processed      []int64
	recoveredCalls int
}

func NewMockPipeline(ids ...int64) *MockPipeline {
	m := &MockPipeline{failIDs: map[int64]bool{}}
	for _, id := range ids {
		m.pending = append(m.pending, &models.Document{ID: id, OriginalFilename: "doc.pdf"})
	}
	return m
}

func (m *MockPipeline) ClaimPending(ctx context.Context, limit int) ([]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimLimits = append(m.claimLimits, limit)
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	n := limit
	if n > len(m.pending) {
		n = len(m.pending)
	}
	batch := m.pending[:n]
	m.pending = m.pending[n:]
	return batch, nil
}

func (m *MockPipeline) Process(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, doc.ID)
	if m.failIDs[doc.ID] {
		return errors.New("text extraction failed")
	}
	return nil
}

func (m *MockPipeline) RecoverInterrupted(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveredCalls++
	return nil
}

func (m *MockPipeline) processedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.processed...)
}

func TestDocumentProcessor_ProcessNow(t *testing.T) {
	pipeline := NewMockPipeline(1, 2, 3)
	pipeline.failIDs[2] = true
	p := NewDocumentProcessor(pipeline, time.Hour, 2, zap.NewNop())

	require.NoError(t, p.ProcessNow(context.Background()))
	assert.Equal(t, []int64{1, 2}, pipeline.processedIDs())

	status := p.GetStatus()
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Equal(t, 1, status.FailedCount)
	assert.Equal(t, "text extraction failed", status.LastError)
	assert.False(t, status.IsRunning)

	require.NoError(t, p.ProcessNow(context.Background()))
	assert.Equal(t, []int64{1, 2, 3}, pipeline.processedIDs())
	assert.Equal(t, []int{2, 2}, pipeline.claimLimits)
}

func TestDocumentProcessor_ClaimError(t *testing.T) {
	pipeline := NewMockPipeline()
	pipeline.claimErr = errors.New("database is locked")
	p := NewDocumentProcessor(pipeline, time.Hour, 5, zap.NewNop())

	err := p.ProcessNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, "database is locked", p.GetStatus().LastError)
}

func TestDocumentProcessor_StartStop(t *testing.T) {
	pipeline := NewMockPipeline(1, 2, 3, 4)
	p := NewDocumentProcessor(pipeline, 10*time.Millisecond, 3, zap.NewNop())

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()), "second start is rejected")
	assert.True(t, p.GetStatus().IsRunning)

	assert.Eventually(t, func() bool {
		return len(pipeline.processedIDs()) == 4
	}, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	p.Stop()

	status := p.GetStatus()
	assert.False(t, status.IsRunning)
	assert.False(t, status.IsHealthy)
	assert.Equal(t, 4, status.ProcessedCount)
	assert.Equal(t, 1, pipeline.recoveredCalls)
}

// recordingWorker tracks lifecycle calls in a shared log
type recordingWorker struct {
	name     string
	startErr error
	log      *[]string
}

func (w *recordingWorker) Start(ctx context.Context) error {
	*w.log = append(*w.log, "start "+w.name)
	return w.startErr
}

func (w *recordingWorker) Stop() { *w.log = append(*w.log, "stop "+w.name) }

func (w *recordingWorker) Name() string { return w.name }

func TestManager_StartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(zap.NewNop())
	m.Register(&recordingWorker{name: "a", log: &log})
	m.Register(&recordingWorker{name: "b", log: &log})
	assert.Equal(t, 2, m.Count())

	require.NoError(t, m.StartAll(context.Background()))
	m.StopAll()
	m.StopAll()

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestManager_StartFailureStopsStarted(t *testing.T) {
	var log []string
	m := NewManager(zap.NewNop())
	m.Register(&recordingWorker{name: "a", log: &log})
	m.Register(&recordingWorker{name: "b", log: &log, startErr: errors.New("port in use")})
	m.Register(&recordingWorker{name: "c", log: &log})

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start b")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, log)

	m.StopAll()
	assert.Len(t, log, 3, "nothing left to stop")
}

// MockCleaner for testing
type MockCleaner struct {
	mu     sync.Mutex
	calls  int
	dryRun []bool
	err    error
}

func (m *MockCleaner) Cleanup(ctx context.Context, dryRun bool) (*service.CleanupStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.dryRun = append(m.dryRun, dryRun)
	if m.err != nil {
		return nil, m.err
	}
	return &service.CleanupStats{RetentionDays: 30, DryRun: dryRun, Errors: []string{}}, nil
}

func (m *MockCleaner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCleanupWorker_RunsOnStartAndInterval(t *testing.T) {
	cleaner := &MockCleaner{}
	w := NewCleanupWorker(cleaner, 20*time.Millisecond, true, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool { return cleaner.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()
	w.Stop()

	require.NotNil(t, w.LastStats())
	assert.True(t, w.LastStats().DryRun)
	assert.Equal(t, "document-cleanup", w.Name())
}

func TestCleanupWorker_RunOnceError(t *testing.T) {
	cleaner := &MockCleaner{err: errors.New("disk unavailable")}
	w := NewCleanupWorker(cleaner, time.Hour, false, zap.NewNop())

	w.RunOnce(context.Background())
	assert.Equal(t, 1, cleaner.callCount())
	assert.Nil(t, w.LastStats())
}
