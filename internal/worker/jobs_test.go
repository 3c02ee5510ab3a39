package worker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository/sqlite"
	"github.com/typespeed/typespeed/internal/scanner"
	"github.com/typespeed/typespeed/internal/testutil"
	"github.com/typespeed/typespeed/internal/worker"
)

func TestScanJob_SyncsFiles(t *testing.T) {
	database := testutil.NewTestDB(t)
	fileRepo := sqlite.NewFileRepository(database.DB)
	ctx := context.Background()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("b = 1\n"), 0o644))

	// A row for a file that no longer exists on disk.
	_, err := fileRepo.Upsert(ctx, models.CodeFile{
		Path: "gone.go", Language: "go", Content: "x",
		LineCount: 1, SizeBytes: 1, ScannedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	job := &worker.ScanJob{Scanner: scanner.New(root, 0), FileRepo: fileRepo}
	require.NoError(t, job.Run(ctx))

	files, err := fileRepo.List(ctx, models.CodeFileFilter{})
	require.NoError(t, err)
	require.Len(t, files, 2)
	paths := []string{files[0].Path, files[1].Path}
	assert.Contains(t, paths, "a.go")
	assert.Contains(t, paths, "b.py")
	assert.NotContains(t, paths, "gone.go", "stale rows are removed")
}

func TestScanJob_RescanIsIdempotent(t *testing.T) {
	database := testutil.NewTestDB(t)
	fileRepo := sqlite.NewFileRepository(database.DB)
	ctx := context.Background()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	job := &worker.ScanJob{Scanner: scanner.New(root, 0), FileRepo: fileRepo}
	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))

	count, err := fileRepo.Count(ctx, models.CodeFileFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type recordingJob struct {
	mu   sync.Mutex
	runs int
	done chan struct{}
	err  error
}

func (j *recordingJob) Name() string { return "recording" }

func (j *recordingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	close(j.done)
	return j.err
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	pool := worker.NewPool(2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	defer cancel()

	job := &recordingJob{done: make(chan struct{})}
	pool.Submit(job)

	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
	pool.Stop()
	assert.Equal(t, 1, job.runs)
}

func TestPool_FailedJobDoesNotStopWorkers(t *testing.T) {
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	defer cancel()

	failing := &recordingJob{done: make(chan struct{}), err: errors.New("boom")}
	pool.Submit(failing)
	<-failing.done

	next := &recordingJob{done: make(chan struct{})}
	pool.Submit(next)
	select {
	case <-next.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after a failed job")
	}
	pool.Stop()
}

func TestPool_TrySubmitDropsWhenFull(t *testing.T) {
	// Pool is never started, so the queue fills up.
	pool := worker.NewPool(1, 8)

	accepted := 0
	for i := 0; i < 20; i++ {
		if pool.TrySubmit(&recordingJob{done: make(chan struct{})}) {
			accepted++
		}
	}
	assert.Equal(t, 8, accepted)
	assert.Equal(t, 8, pool.QueueSize())
}
