// Package supervisor runs the long-lived parts of the server under a suture
// tree: the HTTP API, the import workers and sweeper, and the notification
// dispatcher. Each layer restarts independently of the others.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/ilker/ledger-server/internal/logging"
)

// TreeConfig holds restart and shutdown parameters. Zero values fall back
// to suture's defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree is the root supervisor with one child per layer.
type Tree struct {
	root     *suture.Supervisor
	pipeline *suture.Supervisor
	notify   *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

func NewTree(config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = EventHook

	root := suture.New("ledger-server", rootSpec)
	pipeline := suture.New("import-pipeline", spec)
	notify := suture.New("notifications", spec)
	api := suture.New("api", spec)

	root.Add(pipeline)
	root.Add(notify)
	root.Add(api)

	return &Tree{
		root:     root,
		pipeline: pipeline,
		notify:   notify,
		api:      api,
		config:   config,
	}
}

// AddPipelineService supervises an import worker or the status sweeper.
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddNotifyService supervises the finish event dispatcher.
func (t *Tree) AddNotifyService(svc suture.Service) suture.ServiceToken {
	return t.notify.Add(svc)
}

// AddAPIService supervises the HTTP server.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is cancelled and every service has stopped or the
// shutdown timeout has passed.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// EventHook writes suture events to the application log.
func EventHook(e suture.Event) {
	var ev *zerolog.Event
	switch e.Type() {
	case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
		ev = logging.Error()
	case suture.EventTypeResume:
		ev = logging.Info()
	default:
		ev = logging.Warn()
	}
	ev.Fields(e.Map()).Msg(e.String())
}
