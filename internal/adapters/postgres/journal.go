package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-route-engine/internal/domain"
	"github.com/hxuan190/clmm-route-engine/internal/metrics"
)

const JournalServiceName = "postgres.Journal"

// QuoteWriter is the sink the journal flushes into.
type QuoteWriter interface {
	InsertQuotes(ctx context.Context, quotes []*domain.RouteQuote) error
}

// Journal buffers served quotes and writes them in batches off the request
// path. Record never blocks; a full buffer drops the quote.
type Journal struct {
	writer    QuoteWriter
	queue     chan *domain.RouteQuote
	batchSize int
	interval  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewJournal(writer QuoteWriter, bufferSize, batchSize int, interval time.Duration) *Journal {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Journal{
		writer:    writer,
		queue:     make(chan *domain.RouteQuote, bufferSize),
		batchSize: batchSize,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (j *Journal) ID() string {
	return JournalServiceName
}

// Record queues a quote for the journal.
func (j *Journal) Record(q *domain.RouteQuote) {
	if q == nil {
		return
	}
	select {
	case j.queue <- q:
	default:
		metrics.JournalWrites.WithLabelValues("quote_journal", "dropped").Inc()
	}
}

func (j *Journal) Start(ctx context.Context) error {
	go j.run(ctx)
	return nil
}

// Stop flushes what is queued and waits for the writer loop to exit.
func (j *Journal) Stop() error {
	j.stopOnce.Do(func() { close(j.stop) })
	<-j.done
	return nil
}

func (j *Journal) run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	buf := make([]*domain.RouteQuote, 0, j.batchSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		// a cancelled service context must not lose the final batch
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := j.writer.InsertQuotes(wctx, buf); err != nil {
			log.Warn().Err(err).Int("quotes", len(buf)).Msg("[journal] write failed")
		}
		buf = buf[:0]
	}

	for {
		select {
		case q := <-j.queue:
			buf = append(buf, q)
			if len(buf) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-j.stop:
			for {
				select {
				case q := <-j.queue:
					buf = append(buf, q)
					if len(buf) >= j.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case <-ctx.Done():
			flush()
			return
		}
	}
}
