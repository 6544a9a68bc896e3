package archive

import (
	"encoding/json"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/logtap/internal/storage/pebble"
	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// Sink writes accepted events to a Pebble-backed archive. It implements
// the ingest gate's Archiver interface. Failures are logged and swallowed;
// archiving must never affect the ingestion outcome.
type Sink struct {
	db     *pebblestore.DB
	logger logpkg.Logger
}

// Open creates or opens the archive at dir.
func Open(dir string, logger logpkg.Logger) (*Sink, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir})
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Sink{db: db, logger: logger.WithComponent("archive")}, nil
}

// Close closes the underlying database.
func (s *Sink) Close() error { return s.db.Close() }

// Archive writes one accepted submission as a single batch.
func (s *Sink) Archive(tenant, origin string, topics map[string][]store.Event) {
	b := s.db.NewBatch()
	defer b.Close()
	for topic, events := range topics {
		for _, ev := range events {
			val, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := b.Set(KeyEntry(tenant, origin, topic, ev.ID), val, nil); err != nil {
				s.logger.Warn("archive batch set failed", logpkg.Err(err))
				return
			}
		}
	}
	if err := s.db.CommitBatch(b); err != nil {
		s.logger.Warn("archive commit failed", logpkg.Err(err))
	}
}

// ReadTopic returns up to limit archived events for an address, oldest
// first. A zero limit means no limit.
func (s *Sink) ReadTopic(tenant, origin, topic string, limit int) ([]store.Event, error) {
	low := KeyTopicPrefix(tenant, origin, topic)
	hi := append(append([]byte(nil), low...), 0xff)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []store.Event
	for ok := iter.First(); ok; ok = iter.Next() {
		var ev store.Event
		if err := json.Unmarshal(iter.Value(), &ev); err != nil {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
