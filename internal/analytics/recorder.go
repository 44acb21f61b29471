package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/five82/addressable/internal/logging"
)

var bucketEvents = []byte("events")

const (
	defaultQueueSize = 256
	indexTimeLayout  = "2006-01-02T15:04:05.000000000Z"
)

// ErrClosed is returned by List after Close.
var ErrClosed = errors.New("analytics: recorder closed")

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = (*Memory)(nil)
	_ Sink = Nop{}
)

// Options tune a Recorder.
type Options struct {
	QueueSize int
	Logger    logging.Logger
}

// Recorder writes events to a bolt bucket from a single worker goroutine.
// Record never blocks: when the queue is full the event is dropped and
// counted.
type Recorder struct {
	db     *bolt.DB
	log    logging.Logger
	queue  chan Entry
	done   chan struct{}
	drops  atomic.Int64
	writes atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the event database at path and starts the writer.
func Open(path string, opts Options) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open analytics store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create events bucket: %w", err)
	}

	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	r := &Recorder{
		db:    db,
		log:   log,
		queue: make(chan Entry, size),
		done:  make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// Record queues an event. It is safe to call after Close; the event is
// dropped.
func (r *Recorder) Record(ctx context.Context, event Event, fields map[string]any) {
	entry := Entry{
		ID:     uuid.NewString(),
		Name:   event,
		At:     time.Now().UTC(),
		Fields: copyFields(fields),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drops.Add(1)
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.drops.Add(1)
		r.log.Debug(ctx, "analytics queue full", "event", string(event))
	}
}

// Dropped returns how many events were discarded.
func (r *Recorder) Dropped() int64 { return r.drops.Load() }

// Written returns how many events reached disk.
func (r *Recorder) Written() int64 { return r.writes.Load() }

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		if err := r.write(entry); err != nil {
			r.log.Warn(context.Background(), "analytics write failed", "event", string(entry.Name), "error", err)
			continue
		}
		r.writes.Add(1)
	}
}

func (r *Recorder) write(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).Put(indexKey(entry.At, entry.ID), data)
	})
}

// List returns up to limit events, newest first. A limit of zero or less
// returns everything.
func (r *Recorder) List(limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}

	var out []Entry
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Close stops accepting events, drains the queue and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	return r.db.Close()
}

func indexKey(t time.Time, id string) []byte {
	return []byte(t.UTC().Format(indexTimeLayout) + ":" + id)
}
