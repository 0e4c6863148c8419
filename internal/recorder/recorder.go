package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pushsock/pushsock/internal/config"
)

// Metrics counts recorder activity.
type Metrics struct {
	Inserts int64
	Drops   int64
	Flushes int64
	Errors  int64
}

// frameRow is one row of the frames table.
type frameRow struct {
	Session    uuid.UUID
	Seq        int64
	Payload    string
	ReceivedAt int64 // µs since epoch
}

// Recorder consumes inbound frames and writes them to the frames table
// in batches.
type Recorder struct {
	cfg     config.RecorderConfig
	logger  *slog.Logger
	db      *pgxpool.Pool
	session uuid.UUID

	// Intake from the connection's message callback
	input chan frameRow
	seq   int64

	// Batching
	batch       []frameRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics   Metrics
	metricsMu sync.Mutex
}

// New creates a Recorder with a fresh session ID.
func New(cfg config.RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		session: uuid.New(),
		input:   make(chan frameRow, cfg.BufferSize),
		batch:   make([]frameRow, 0, cfg.BatchSize),
	}
}

// Session returns the session ID stamped on every recorded frame.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// Record queues one frame. It never blocks: when the intake buffer is
// full the frame is dropped and counted.
func (r *Recorder) Record(payload string) {
	row := frameRow{
		Session:    r.session,
		Payload:    payload,
		ReceivedAt: time.Now().UnixMicro(),
	}

	select {
	case r.input <- row:
	default:
		r.metricsMu.Lock()
		r.metrics.Drops++
		r.metricsMu.Unlock()
		r.logger.Warn("recorder buffer full, dropping frame")
	}
}

// Start begins consuming frames and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"session", r.session,
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts down the loops, drains frames still queued in the intake
// buffer, and flushes the final batch.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Queued frames would otherwise be lost without a trace.
	r.drain()
	r.flush()

	return nil
}

// drain moves frames still queued in the intake buffer into the batch.
// Only called once the consume loop has stopped.
func (r *Recorder) drain() {
	for {
		select {
		case row := <-r.input:
			r.seq++
			row.Seq = r.seq
			r.handleRow(row)
		default:
			return
		}
	}
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.metricsMu.Lock()
	defer r.metricsMu.Unlock()
	return r.metrics
}

// consumeLoop assigns sequence numbers and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case row := <-r.input:
			r.seq++
			row.Seq = r.seq
			r.handleRow(row)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush()
		}
	}
}

// handleRow adds a row to the batch, flushing when the batch fills.
func (r *Recorder) handleRow(row frameRow) {
	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush()
	}
}

// flush writes the current batch to the database.
func (r *Recorder) flush() {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]frameRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	if err := r.insert(batch); err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.metricsMu.Lock()
		r.metrics.Errors++
		r.metricsMu.Unlock()
		return
	}

	r.metricsMu.Lock()
	r.metrics.Inserts += int64(len(batch))
	r.metrics.Flushes++
	r.metricsMu.Unlock()

	r.logger.Debug("flushed frames",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// insert copies a batch into the frames table.
func (r *Recorder) insert(batch []frameRow) error {
	if r.db == nil {
		return errors.New("no database pool")
	}

	rows := make([][]any, len(batch))
	for i, row := range batch {
		rows[i] = []any{row.Session, row.Seq, row.Payload, row.ReceivedAt}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.db.CopyFrom(
		ctx,
		pgx.Identifier{"frames"},
		[]string{"session_id", "seq", "payload", "received_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}
