package logger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
)

const (
	axiomBatch   = 200
	axiomTimeout = 15 * time.Second
)

// ingester is the slice of *axiom.Client the sink needs.
type ingester interface {
	IngestEvents(ctx context.Context, dataset string, events []axiom.Event, options ...ingest.Option) (*ingest.Status, error)
}

func newAxiomClient(token, orgID string) (*axiom.Client, error) {
	opts := []axiom.Option{axiom.SetToken(token)}
	if orgID != "" {
		opts = append(opts, axiom.SetOrganizationID(orgID))
	}
	return axiom.NewClient(opts...)
}

// axiomSink buffers info-and-above events in memory and ships them when the
// batch fills, when the oldest event is older than flushEvery, and on Close.
// A run is short-lived, so there is no background goroutine.
type axiomSink struct {
	client     ingester
	dataset    string
	flushEvery time.Duration

	mu      sync.Mutex
	batch   []axiom.Event
	oldest  time.Time
	lastErr error
}

func newAxiomSink(client ingester, dataset string, flushEvery time.Duration) *axiomSink {
	if dataset == "" {
		dataset = "dev_" + service
	}
	if flushEvery <= 0 {
		flushEvery = 2 * time.Second
	}
	return &axiomSink{
		client:     client,
		dataset:    dataset,
		flushEvery: flushEvery,
		batch:      make([]axiom.Event, 0, axiomBatch),
	}
}

// Write is used by writers that lose the level; treat the line as info.
func (s *axiomSink) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel drops debug and trace, then queues the event.
func (s *axiomSink) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.InfoLevel || l == zerolog.NoLevel {
		return len(p), nil
	}

	var ev axiom.Event
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = axiom.Event{zerolog.MessageFieldName: string(p), zerolog.LevelFieldName: l.String()}
	}
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batch) == 0 {
		s.oldest = time.Now()
	}
	s.batch = append(s.batch, ev)
	if len(s.batch) >= axiomBatch || time.Since(s.oldest) >= s.flushEvery {
		s.flushLocked()
	}
	return len(p), nil
}

func (s *axiomSink) flushLocked() {
	if len(s.batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), axiomTimeout)
	defer cancel()
	if _, err := s.client.IngestEvents(ctx, s.dataset, s.batch); err != nil {
		s.lastErr = err
	}
	s.batch = s.batch[:0]
}

// Close flushes the remaining events and reports the last ingest error.
func (s *axiomSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	err := s.lastErr
	s.lastErr = nil
	return err
}
