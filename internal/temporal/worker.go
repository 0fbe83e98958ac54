// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
)

// WorkerOptions contains configuration for TemporalWorker
type WorkerOptions struct {
	// HostPort is the Temporal frontend address (default: client.DefaultHostPort)
	HostPort string
	// TaskQueue is the task queue name for this worker
	TaskQueue string
	// Namespace is the Temporal namespace (default: "default")
	Namespace string
	// MaxConcurrent is max concurrent activity executions (default: 4)
	MaxConcurrent int
}

func (o WorkerOptions) withDefaults() (WorkerOptions, error) {
	if o.TaskQueue == "" {
		return o, errors.New("task_queue is required")
	}
	if o.HostPort == "" {
		o.HostPort = client.DefaultHostPort
	}
	if o.Namespace == "" {
		o.Namespace = client.DefaultNamespace
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	return o, nil
}

// Dial connects to Temporal with the process logger
func Dial(opts WorkerOptions) (client.Client, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	// Route SDK logs through slog
	c, err := client.Dial(client.Options{
		HostPort:  opts.HostPort,
		Namespace: opts.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	return c, nil
}

// TemporalWorker manages Temporal client and worker lifecycle
type TemporalWorker struct {
	client  client.Client
	worker  worker.Worker
	opts    WorkerOptions
	started bool
	mu      sync.Mutex
}

// NewTemporalWorker dials Temporal and registers TDDWorkflow and acts
func NewTemporalWorker(opts WorkerOptions, acts *Activities) (*TemporalWorker, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if acts == nil {
		return nil, errors.New("activities are required")
	}

	c, err := Dial(opts)
	if err != nil {
		return nil, err
	}

	// Create worker
	w := worker.New(c, opts.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: opts.MaxConcurrent,
	})

	// Register workflows and activities
	w.RegisterWorkflow(TDDWorkflow)
	w.RegisterActivity(acts)

	return &TemporalWorker{client: c, worker: w, opts: opts}, nil
}

// Start begins the worker's execution loop.
// Idempotent: calling Start multiple times is safe.
func (w *TemporalWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}
	if err := w.worker.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	w.started = true
	slog.Info("temporal worker started", "task_queue", w.opts.TaskQueue, "namespace", w.opts.Namespace)
	return nil
}

// Run starts the worker and blocks until ctx is cancelled
func (w *TemporalWorker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Close()
}

// Close stops the worker and closes the client connection
func (w *TemporalWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		w.worker.Stop()
		w.started = false
	}
	if w.client != nil {
		w.client.Close()
	}
	return nil
}

// Submit starts a TDDWorkflow on taskQueue
func Submit(ctx context.Context, c client.Client, taskQueue string, in TDDWorkflowInput) (client.WorkflowRun, error) {
	if taskQueue == "" {
		return nil, errors.New("task_queue is required")
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "tdd-" + uuid.NewString(),
		TaskQueue: taskQueue,
	}, TDDWorkflow, in)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}
	return run, nil
}
