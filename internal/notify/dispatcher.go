package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/domain"
)

var (
	// ErrQueueFull is returned when the dispatcher cannot accept more mail
	ErrQueueFull = fmt.Errorf("%w: queue full", domain.ErrNotificationFailed)
	// ErrStopped is returned after Stop has been called
	ErrStopped = fmt.Errorf("%w: dispatcher stopped", domain.ErrNotificationFailed)
)

// Config sizes the dispatcher worker pool
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	// Backoff is the wait before the first retry; it doubles per attempt
	Backoff time.Duration
}

// DefaultConfig returns the default dispatcher settings
func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   100,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// Stats counts delivery outcomes since start
type Stats struct {
	Sent    int64
	Failed  int64
	Retried int64
}

type job struct {
	id  uuid.UUID
	msg Message
}

// Dispatcher delivers messages on a pool of background workers so callers
// never wait on the mail provider
type Dispatcher struct {
	sender   Sender
	composer *Composer
	cfg      Config
	logger   *zap.Logger

	jobs    chan job
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	sent, failed, retried atomic.Int64
}

// NewDispatcher creates a dispatcher. Call Start before enqueueing.
func NewDispatcher(sender Sender, composer *Composer, cfg Config, logger *zap.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		sender:   sender,
		composer: composer,
		cfg:      cfg,
		logger:   logger,
		jobs:     make(chan job, cfg.QueueSize),
	}
}

// Start launches the workers
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.logger.Info("starting mail dispatcher", zap.Int("workers", d.cfg.Workers))
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i)
	}
}

// Enqueue queues msg for delivery without blocking
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	j := job{id: uuid.New(), msg: msg}
	select {
	case d.jobs <- j:
		d.logger.Debug("mail queued", zap.String("job_id", j.id.String()), zap.String("subject", msg.Subject))
		return nil
	default:
		return ErrQueueFull
	}
}

// SendOrderConfirmation renders the order confirmation for the buyer and
// queues it
func (d *Dispatcher) SendOrderConfirmation(_ context.Context, email, username string) error {
	msg, err := d.composer.OrderConfirmation(email, username)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}
	return d.Enqueue(msg)
}

// Stop refuses new mail and waits for queued mail to drain. When ctx ends
// first, in-flight retries are abandoned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("mail dispatcher stopped", zap.Int64("sent", d.sent.Load()), zap.Int64("failed", d.failed.Load()))
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		<-done
		return ctx.Err()
	}
}

// Stats returns delivery counters
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Retried: d.retried.Load(),
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	defer d.wg.Done()

	for j := range d.jobs {
		d.deliver(ctx, worker, j)
	}
}

// deliver attempts j up to MaxAttempts times with doubling backoff
func (d *Dispatcher) deliver(ctx context.Context, worker int, j job) {
	log := d.logger.With(zap.Int("worker", worker), zap.String("job_id", j.id.String()))
	backoff := d.cfg.Backoff

	for attempt := 1; ; attempt++ {
		err := d.sender.Send(ctx, j.msg)
		if err == nil {
			d.sent.Add(1)
			log.Info("mail sent", zap.String("to", j.msg.To.Email), zap.Int("attempt", attempt))
			return
		}

		if attempt >= d.cfg.MaxAttempts || errors.Is(err, context.Canceled) {
			d.failed.Add(1)
			log.Error("mail delivery failed",
				zap.String("to", j.msg.To.Email),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}

		d.retried.Add(1)
		log.Warn("mail delivery failed, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			d.failed.Add(1)
			log.Error("mail delivery abandoned", zap.String("to", j.msg.To.Email), zap.Error(ctx.Err()))
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
