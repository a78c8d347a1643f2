// Package usage keeps a per-call log of outbound Google requests in PostgreSQL.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Record is one outbound call, or one cache hit standing in for a call.
type Record struct {
	RequestID  string
	TenantID   string
	KeyID      string
	API        string
	Signed     bool
	Cached     bool
	Outcome    string
	StatusCode int
	Duration   time.Duration
	At         time.Time
}

// Recorder accepts usage records. Implementations must not block the caller.
type Recorder interface {
	Record(r Record)
}

// CopyFromer is the part of *pgxpool.Pool the writer needs.
type CopyFromer interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

var columns = []string{
	"request_id", "tenant_id", "key_id", "api", "signed", "cached",
	"outcome", "status_code", "duration_ms", "created_at",
}

// Writer buffers records and flushes them with COPY in batches. Records that
// arrive while the buffer is full are dropped and logged.
type Writer struct {
	db        CopyFromer
	in        chan Record
	batchSize int
	interval  time.Duration
	logger    *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

func NewWriter(db CopyFromer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		db:        db,
		in:        make(chan Record, 1024),
		batchSize: 200,
		interval:  2 * time.Second,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) Record(r Record) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	select {
	case w.in <- r:
	default:
		w.logger.Warn("usage buffer full, dropping record", "api", r.API, "tenant_id", r.TenantID)
	}
}

// Close flushes pending records and stops the writer.
func (w *Writer) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make([]Record, 0, w.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.flush(batch); err != nil {
			w.logger.Error("usage flush failed", "records", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case r := <-w.in:
			batch = append(batch, r)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.stop:
			for {
				select {
				case r := <-w.in:
					batch = append(batch, r)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) flush(batch []Record) error {
	if w.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := w.db.CopyFrom(ctx, pgx.Identifier{"usage_log"}, columns, pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
		r := batch[i]
		return []any{
			r.RequestID, r.TenantID, r.KeyID, r.API, r.Signed, r.Cached,
			r.Outcome, r.StatusCode, r.Duration.Milliseconds(), r.At,
		}, nil
	}))
	if err != nil {
		return fmt.Errorf("copy usage records: %w", err)
	}
	w.logger.Debug("usage flushed", "records", n)
	return nil
}

// Discard drops every record.
type Discard struct{}

func (Discard) Record(Record) {}
