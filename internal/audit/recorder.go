package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/typed-rpc/internal/rpc"
	"github.com/jmehdipour/typed-rpc/internal/util"
)

const insertTimeout = 2 * time.Second

// RecorderOpts tunes the write-behind queue.
type RecorderOpts struct {
	BufferSize int           // queued records before calls are dropped
	BatchSize  int           // max records per insert
	BatchWait  time.Duration // max time a record waits before flush
}

func (o RecorderOpts) withDefaults() RecorderOpts {
	if o.BufferSize <= 0 {
		o.BufferSize = 1024
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 200
	}
	if o.BatchWait <= 0 {
		o.BatchWait = time.Second
	}
	return o
}

// Recorder queues every dispatched call and writes them to a CallsRepository
// in batches from a single goroutine. ObserveCall never blocks on storage:
// when the queue is full the record is dropped and counted. Failed writes
// are logged and never affect the call.
type Recorder struct {
	repo CallsRepository
	log  *zap.Logger
	now  func() time.Time
	opts RecorderOpts

	queue   chan CallRecord
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewRecorder starts the background writer. Call Close to flush and stop it.
func NewRecorder(repo CallsRepository, log *zap.Logger, opts RecorderOpts) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	r := &Recorder{
		repo:  repo,
		log:   log,
		now:   time.Now,
		opts:  opts,
		queue: make(chan CallRecord, opts.BufferSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// ObserveCall implements rpc.Observer.
func (r *Recorder) ObserveCall(_ context.Context, c rpc.Call) {
	code := "OK"
	if c.Err != nil {
		code = rpc.CodeOf(c.Err)
	}
	rec := CallRecord{
		ID:         util.NewID(),
		Procedure:  c.Procedure,
		Username:   c.Username,
		Code:       code,
		DurationUS: uint64(c.Duration.Microseconds()),
		CreatedAt:  r.now(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(rec, "recorder closed")
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.drop(rec, "queue full")
	}
}

func (r *Recorder) drop(rec CallRecord, reason string) {
	r.dropped.Add(1)
	r.log.Warn("audit record dropped",
		zap.String("procedure", rec.Procedure),
		zap.String("reason", reason),
	)
}

// Dropped reports how many records were discarded without being written.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Close stops accepting records and waits for the queue to be written, or
// for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("audit recorder: flush not finished"), ctx.Err())
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	tick := time.NewTicker(r.opts.BatchWait)
	defer tick.Stop()

	batch := make([]CallRecord, 0, r.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		if err := r.repo.InsertBatch(ctx, batch); err != nil {
			r.log.Warn("audit insert failed",
				zap.Int("calls", len(batch)),
				zap.Error(err),
			)
		}
		batch = make([]CallRecord, 0, r.opts.BatchSize)
	}

	for {
		select {
		case rec, ok := <-r.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= r.opts.BatchSize {
				flush()
			}
		case <-tick.C:
			flush()
		}
	}
}
