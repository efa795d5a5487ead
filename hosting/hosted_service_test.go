package hosting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	stopErr error
}

func (s *blockingService) Name() string { return "blocking" }

func (s *blockingService) Start(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return s.stopErr
}

type failingService struct{}

func (failingService) Start(ctx context.Context) error { return errors.New("listen failed") }
func (failingService) Stop(ctx context.Context) error { return nil }

func TestStartStop(t *testing.T) {
	m := NewHostedServiceManager(nil)
	svc := &blockingService{}
	m.Add(svc)
	assert.Equal(t, 1, m.Len())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := m.StartAll(ctx)

	require.Eventually(t, svc.started.Load, time.Second, 10*time.Millisecond)
	cancel()
	m.Wait()

	require.NoError(t, m.StopAll(context.Background()))
	assert.True(t, svc.stopped.Load())

	select {
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}

func TestStartErrorReported(t *testing.T) {
	m := NewHostedServiceManager(nil)
	m.Add(failingService{})

	errCh := m.StartAll(context.Background())
	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "listen failed")
		assert.Contains(t, err.Error(), "hosting.failingService#1")
	case <-time.After(time.Second):
		t.Fatal("expected start error")
	}
}

func TestStopErrorsJoined(t *testing.T) {
	m := NewHostedServiceManager(nil)
	boom := errors.New("boom")
	m.Add(&blockingService{stopErr: boom})
	m.Add(&blockingService{})

	err := m.StopAll(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "blocking: boom")
}
