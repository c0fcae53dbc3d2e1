package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/observability"
)

var ErrDispatcherStopped = errors.New("notification dispatcher stopped")

type Config struct {
	MaxWorkers   int
	JobQueueSize int
	SendTimeout  time.Duration
}

type job struct {
	ctx  context.Context
	msg  Message
	done chan<- error
}

type worker struct {
	id         int
	workerPool chan chan job
	jobChannel chan job
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan job, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan job),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				w.logger.Debug("delivery worker shutting down", "worker_id", w.id)
				return
			}

			select {
			case j := <-w.jobChannel:
				process(j)
			case <-ctx.Done():
				w.logger.Debug("delivery worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Failure is one message that could not be delivered.
type Failure struct {
	ChatID int64
	Err    error
}

type BatchResult struct {
	Sent     int
	Failed   int
	Failures []Failure
}

// Dispatcher fans messages out to a bounded pool of workers. Each message is
// attempted exactly once, bounded by SendTimeout.
type Dispatcher struct {
	sender      Sender
	sendTimeout time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger

	jobQueue   chan job
	workerPool chan chan job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewDispatcher(sender Sender, config Config, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	d := &Dispatcher{
		sender:      sender,
		sendTimeout: config.SendTimeout,
		metrics:     metrics,
		logger:      logger,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan job, jobQueueSize),
		workerPool:  make(chan chan job, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			newWorker(i, d.workerPool, d.logger).start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("delivery worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case j := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- j:
				case <-d.ctx.Done():
					j.done <- ErrDispatcherStopped
					return
				}
			case <-d.ctx.Done():
				j.done <- ErrDispatcherStopped
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("delivery dispatcher shutting down")
			return
		}
	}
}

// Stop cancels the pool and waits for in-flight sends to return.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down delivery dispatcher")
		d.cancel()
		d.wg.Wait()
		d.logger.Info("delivery dispatcher shutdown complete")
	})
}

// Send delivers one message through the pool and waits for the result.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	res := d.SendBatch(ctx, []Message{msg})
	if len(res.Failures) > 0 {
		return res.Failures[0].Err
	}
	return nil
}

// SendBatch delivers every message and reports how many went through. A failed
// message never stops the rest of the batch.
func (d *Dispatcher) SendBatch(ctx context.Context, msgs []Message) BatchResult {
	var result BatchResult
	if len(msgs) == 0 {
		return result
	}

	type queued struct {
		chatID int64
		done   chan error
	}
	waiting := make([]queued, 0, len(msgs))

	for _, msg := range msgs {
		done := make(chan error, 1)
		select {
		case d.jobQueue <- job{ctx: ctx, msg: msg, done: done}:
			waiting = append(waiting, queued{chatID: msg.ChatID, done: done})
		case <-ctx.Done():
			d.fail(&result, msg.ChatID, ctx.Err())
		case <-d.ctx.Done():
			d.fail(&result, msg.ChatID, ErrDispatcherStopped)
		}
	}

	for _, q := range waiting {
		var err error
		select {
		case err = <-q.done:
		case <-d.ctx.Done():
			select {
			case err = <-q.done:
			default:
				err = ErrDispatcherStopped
			}
		}
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, Failure{ChatID: q.chatID, Err: err})
			continue
		}
		result.Sent++
	}

	return result
}

func (d *Dispatcher) fail(result *BatchResult, chatID int64, err error) {
	d.metrics.Delivery(observability.DeliveryFailed)
	d.logger.Warn("message not queued", "chat_id", chatID, "error", err)
	result.Failed++
	result.Failures = append(result.Failures, Failure{ChatID: chatID, Err: err})
}

func (d *Dispatcher) process(j job) {
	err := d.deliver(j)
	if err != nil {
		d.metrics.Delivery(observability.DeliveryFailed)
		d.logger.Error("message delivery failed", "chat_id", j.msg.ChatID, "error", err)
	} else {
		d.metrics.Delivery(observability.DeliverySent)
		d.logger.Debug("message delivered", "chat_id", j.msg.ChatID)
	}
	j.done <- err
}

func (d *Dispatcher) deliver(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sender panicked", "chat_id", j.msg.ChatID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("send to chat %d: %w", j.msg.ChatID, &observability.PanicError{Value: r})
		}
	}()

	ctx, cancel := internal.WithTimeout(j.ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, j.msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", j.msg.ChatID, err)
	}
	return nil
}
