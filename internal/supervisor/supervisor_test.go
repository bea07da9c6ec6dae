package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

type countingService struct {
	name   string
	starts atomic.Int32
	fails  atomic.Int32 // remaining forced failures
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	if s.fails.Load() > 0 {
		s.fails.Add(-1)
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func TestNewTree_Defaults(t *testing.T) {
	tree := NewTree(TreeConfig{})
	assert.Equal(t, 5.0, tree.config.FailureThreshold)
	assert.Equal(t, 30.0, tree.config.FailureDecay)
	assert.Equal(t, 15*time.Second, tree.config.FailureBackoff)
	assert.Equal(t, 10*time.Second, tree.config.ShutdownTimeout)
}

func TestTree_RunsAndRestartsServices(t *testing.T) {
	tree := NewTree(TreeConfig{FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second})

	worker := &countingService{name: "worker"}
	worker.fails.Store(2)
	dispatcher := &countingService{name: "dispatcher"}
	api := &countingService{name: "api"}

	tree.AddPipelineService(worker)
	tree.AddNotifyService(dispatcher)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return worker.starts.Load() >= 3 && dispatcher.starts.Load() == 1 && api.starts.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// A failing pipeline service does not restart the other layers.
	assert.EqualValues(t, 1, dispatcher.starts.Load())
	assert.EqualValues(t, 1, api.starts.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestEventHook(t *testing.T) {
	assert.NotPanics(t, func() {
		EventHook(suture.EventBackoff{SupervisorName: "import-pipeline"})
		EventHook(suture.EventResume{SupervisorName: "import-pipeline"})
	})
}

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, time.Second)
	assert.Equal(t, "http-server", svc.String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.EqualValues(t, 1, srv.shutdowns.Load())
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("address already in use")

	err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.Zero(t, srv.shutdowns.Load())
}
