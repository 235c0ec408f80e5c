package client

import (
	"context"
	"sync"

	"github.com/oleiade/lane/v2"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
)

type footprint struct {
	test    string
	classes []string
}

// Reporter sends the footprints of one project in the background, in the order
// they were added, so test execution does not wait for the server.
type Reporter struct {
	console consoles.Console
	client  *Client
	project string

	queue  *lane.Queue[footprint]
	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}

	mutex  sync.Mutex
	closed bool
	failed int
	err    error
}

func NewReporter(ctx context.Context, console consoles.Console, client *Client, project string) *Reporter {
	r := &Reporter{
		console: console,
		client:  client,
		project: project,
		queue:   lane.NewQueue[footprint](),
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go r.run(context.WithoutCancel(ctx))

	return r
}

// Add queues the classes referenced by test.
func (r *Reporter) Add(test string, classes []string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return errors.Errorf("reporter of %v is closed", r.project)
	}

	r.queue.Enqueue(footprint{test: test, classes: classes})

	select {
	case r.signal <- struct{}{}:
	default:
	}

	return nil
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)

	for {
		r.flush(ctx)

		select {
		case <-r.signal:
		case <-r.stop:
			r.flush(ctx)
			return
		}
	}
}

func (r *Reporter) flush(ctx context.Context) {
	for {
		item, ok := r.queue.Dequeue()
		if !ok {
			return
		}

		err := r.client.AddReport(ctx, r.project, item.test, item.classes)
		if err != nil {
			r.console.Warnf("Could not send report of %v: %v", item.test, err)

			r.mutex.Lock()
			r.failed++
			if r.err == nil {
				r.err = err
			}
			r.mutex.Unlock()
		}
	}
}

// Close sends the queued footprints and then asks the server to store them.
// Tests whose footprint could not be sent are not stored and run again next time.
func (r *Reporter) Close(ctx context.Context, digest string) error {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return nil
	}
	r.closed = true
	r.mutex.Unlock()

	close(r.stop)

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mutex.Lock()
	failed, err := r.failed, r.err
	r.mutex.Unlock()

	writeErr := r.client.WriteReport(ctx, r.project, digest)
	if writeErr != nil {
		return writeErr
	}

	if err != nil {
		return errors.Wrapf(err, "%v reports of %v could not be sent", failed, r.project)
	}

	return nil
}
