package components

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/omnitool-ai/omnitool-sub002/pkg/events"
	"github.com/omnitool-ai/omnitool-sub002/pkg/metrics"
	"github.com/omnitool-ai/omnitool-sub002/pkg/mocks"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWorkerStart_ReportsFailure(t *testing.T) {
	var published events.ComponentError

	bus := &mocks.MockEventPublisher{}
	bus.On("Publish", mock.Anything, "s1", mock.AnythingOfType("events.ComponentError")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(events.ComponentError)
		}).
		Return(nil).Once()

	c := mustComponent(t, models.ComponentFormat{
		APINamespace:   "test",
		APIOperationID: "custom",
		Method:         models.MethodCustom,
	}, Macros{})

	node := models.NewNode("n1", "test.custom")

	out, err := c.WorkerStart(context.Background(), newWorker(t, &Host{Events: bus}, node))
	require.ErrorIs(t, err, ErrMacroNotFound)
	assert.Nil(t, out)

	assert.Equal(t, err.Error(), node.Outputs[models.ErrorOutputKey])
	assert.Equal(t, events.ComponentErrorEvent, published.GetType())
	assert.Equal(t, StageDispatch, published.Stage)
	assert.Equal(t, "n1", published.NodeID)
	assert.Equal(t, "test.custom", published.ComponentKey)
	assert.Equal(t, "s1", published.SessionID)
	bus.AssertExpectations(t)
}

func TestWorkerStart_RecoversPanic(t *testing.T) {
	exec := func(context.Context, map[string]any, *WorkerContext, *Component) (any, error) {
		panic("boom")
	}

	c := mustComponent(t, models.ComponentFormat{
		APINamespace:   "test",
		APIOperationID: "panics",
		Method:         models.MethodCustom,
	}, Macros{Exec: exec})

	node := models.NewNode("n1", "test.panics")

	_, err := c.WorkerStart(context.Background(), newWorker(t, &Host{}, node))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
	assert.Contains(t, node.Outputs[models.ErrorOutputKey], "boom")
}

func TestWorkerStart_PublishesExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	bus := &mocks.MockEventPublisher{}
	bus.On("Publish", mock.Anything, "s1", mock.AnythingOfType("events.ComponentExecuted")).Return(nil).Once()

	c := mustComponent(t, models.ComponentFormat{
		APINamespace:   "test",
		APIOperationID: "echo",
		Method:         models.MethodPassthrough,
		Inputs:         map[string]models.IO{"text": {Type: models.TypeString}},
	}, Macros{})

	node := models.NewNode("n1", "test.echo")
	node.Data["text"] = "hi"

	out, err := c.WorkerStart(context.Background(), newWorker(t, &Host{Events: bus, Metrics: m}, node))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"text": "hi"}, out)
	assert.NotContains(t, node.Outputs, models.ErrorOutputKey)
	bus.AssertExpectations(t)

	count, err := testutil.GatherAndCount(reg, "omnitool_component_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWorkerStart_PublishFailureIsIgnored(t *testing.T) {
	bus := &mocks.MockEventPublisher{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bus down"))

	c := mustComponent(t, models.ComponentFormat{
		APINamespace:   "test",
		APIOperationID: "noop",
		Method:         models.MethodNoop,
	}, Macros{})

	out, err := c.WorkerStart(context.Background(), newWorker(t, &Host{Events: bus}, models.NewNode("n1", "test.noop")))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewWorkerContext_ForksJob(t *testing.T) {
	job := models.NewJobContext("s1", "u1", "wf", map[string]any{"seed": 1.0})

	wctx, err := NewWorkerContext(&Host{}, job, models.NewNode("n1", "x.y"))
	require.NoError(t, err)

	wctx.Job.Args["seed"] = 2.0
	assert.Equal(t, 1.0, job.Args["seed"])
	assert.Equal(t, job.JobID, wctx.Job.JobID)

	host, err := wctx.Host()
	require.NoError(t, err)
	assert.NotNil(t, host.Evaluator)
	assert.NotNil(t, host.Sockets)

	wctx.Dispose()

	_, err = wctx.Host()
	require.ErrorIs(t, err, ErrContextDisposed)
}

func TestHost_WithDefaultsLeavesHostUntouched(t *testing.T) {
	partial := &Host{}

	filled := partial.WithDefaults()
	assert.NotSame(t, partial, filled)
	assert.Nil(t, partial.Sockets)
	assert.Nil(t, partial.Evaluator)
	assert.NotNil(t, filled.Sockets)
	assert.NotNil(t, filled.Logger)
	assert.NotNil(t, filled.Tracer)

	var nilHost *Host
	assert.NotNil(t, nilHost.WithDefaults().Sockets)
}

func TestNewWorkerContext_SharesSocketRegistry(t *testing.T) {
	host := (&Host{}).WithDefaults()

	var wg sync.WaitGroup

	registries := make([]*sockets.Registry, 8)

	for i := range registries {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			wctx, err := NewWorkerContext(host, models.NewJobContext("s1", "u1", "wf", nil), models.NewNode("n1", "x.y"))
			if err != nil {
				return
			}
			defer wctx.Dispose()

			h, err := wctx.Host()
			if err == nil {
				registries[i] = h.Sockets
			}
		}(i)
	}

	wg.Wait()

	for _, reg := range registries {
		assert.Same(t, host.Sockets, reg)
	}
}
