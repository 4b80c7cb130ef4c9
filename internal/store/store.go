package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/backlog/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Record constrains T so that *T is a domain.Entity. It lets the stores
// allocate and decode rows without a factory function.
type Record[T any] interface {
	*T
	domain.Entity
}

// DB is the bolt database shared by every catalog kind
type DB struct {
	db *bolt.DB
}

// Open opens (or creates) the bolt cache under baseDir
func Open(baseDir string) (*DB, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(baseDir, "backlog.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// BoltStore implements domain.CatalogStore for one kind.
// Rows live in the "<kind>" bucket keyed by local ID; "<kind>:external"
// maps external ID -> local ID.
type BoltStore[T any, P Record[T]] struct {
	db    *bolt.DB
	rows  []byte
	index []byte
	now   func() time.Time

	mu sync.RWMutex // Protects cache and gen

	// In-memory cache for hot-path reads (promoted on access)
	cache map[int64][]byte
	// gen is bumped after every committed write. A read only promotes
	// when no write committed since it started.
	gen uint64
}

// NewBoltStore creates the buckets for kind and returns its store
func NewBoltStore[T any, P Record[T]](d *DB, kind domain.Kind) (*BoltStore[T, P], error) {
	s := &BoltStore[T, P]{
		db:    d.db,
		rows:  []byte(kind),
		index: []byte(string(kind) + ":external"),
		now:   time.Now,
		cache: make(map[int64][]byte),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{s.rows, s.index} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s buckets: %w", kind, err)
	}
	return s, nil
}

// === Generic helpers ===

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func decode[T any, P Record[T]](data []byte) (P, error) {
	var v T
	p := P(&v)
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// promote caches data read under generation gen, unless a write has committed since
func (s *BoltStore[T, P]) promote(id int64, data []byte, gen uint64) {
	s.mu.Lock()
	if s.gen == gen {
		s.cache[id] = data
	}
	s.mu.Unlock()
}

// invalidate drops cached rows after a write commits; nil ids clears everything
func (s *BoltStore[T, P]) invalidate(ids ...int64) {
	s.mu.Lock()
	s.gen++
	if ids == nil {
		s.cache = make(map[int64][]byte)
	}
	for _, id := range ids {
		delete(s.cache, id)
	}
	s.mu.Unlock()
}

// scan decodes every row in local ID order
func (s *BoltStore[T, P]) scan() ([]P, error) {
	var all []P
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.rows).ForEach(func(k, v []byte) error {
			e, err := decode[T, P](v)
			if err != nil {
				return fmt.Errorf("row %d: %w", btoi(k), err)
			}
			all = append(all, e)
			return nil
		})
	})
	return all, err
}

// === Lookups ===

func (s *BoltStore[T, P]) GetByLocalID(ctx context.Context, id int64) (P, bool, error) {
	// Check memory cache first
	s.mu.RLock()
	data, ok := s.cache[id]
	gen := s.gen
	s.mu.RUnlock()

	if !ok {
		s.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(s.rows).Get(itob(id)); v != nil {
				data = make([]byte, len(v))
				copy(data, v)
			}
			return nil
		})
		if data == nil {
			return nil, false, nil
		}
		s.promote(id, data, gen)
	}

	e, err := decode[T, P](data)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *BoltStore[T, P]) GetByExternalID(ctx context.Context, externalID int64) (P, bool, error) {
	var localID int64
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.index).Get(itob(externalID)); v != nil {
			localID = btoi(v)
		}
		return nil
	})
	if localID == 0 {
		return nil, false, nil
	}
	return s.GetByLocalID(ctx, localID)
}

// Search returns rows whose name contains term, ignoring case. Matches are
// ordered by fuzzy distance so the tightest names come first.
func (s *BoltStore[T, P]) Search(ctx context.Context, term string) ([]P, error) {
	all, err := s.scan()
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return all, nil
	}

	needle := strings.ToLower(term)
	var matched []P
	var names []string
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.GetName()), needle) {
			matched = append(matched, e)
			names = append(names, e.GetName())
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Stable(ranks)

	results := make([]P, 0, len(matched))
	placed := make([]bool, len(matched))
	for _, r := range ranks {
		if !placed[r.OriginalIndex] {
			results = append(results, matched[r.OriginalIndex])
			placed[r.OriginalIndex] = true
		}
	}
	for i, e := range matched {
		if !placed[i] {
			results = append(results, e)
		}
	}
	return results, nil
}

// ListAllOrderedByRank returns every row, highest rank first
func (s *BoltStore[T, P]) ListAllOrderedByRank(ctx context.Context) ([]P, error) {
	all, err := s.scan()
	if err != nil {
		return nil, err
	}
	sortByRank(all)
	return all, nil
}

func sortByRank[P domain.Entity](items []P) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].GetRank() != items[j].GetRank() {
			return items[i].GetRank() > items[j].GetRank()
		}
		return items[i].GetLocalID() < items[j].GetLocalID()
	})
}

// === Writes ===

// Upsert inserts e or overwrites the row with the same external ID.
// The existence check and the write share one bolt write transaction.
func (s *BoltStore[T, P]) Upsert(ctx context.Context, e P) (int64, error) {
	prevID, prevCreated := e.GetLocalID(), e.GetCreatedAt()

	err := s.db.Update(func(tx *bolt.Tx) error {
		rows := tx.Bucket(s.rows)
		index := tx.Bucket(s.index)
		extKey := itob(e.GetExternalID())

		if v := index.Get(extKey); v != nil {
			localID := btoi(v)
			e.SetLocalID(localID)
			if existing := rows.Get(v); existing != nil {
				old, err := decode[T, P](existing)
				if err != nil {
					return fmt.Errorf("row %d: %w", localID, err)
				}
				e.SetCreatedAt(old.GetCreatedAt())
			}
		} else {
			seq, err := rows.NextSequence()
			if err != nil {
				return err
			}
			e.SetLocalID(int64(seq))
			if e.GetCreatedAt().IsZero() {
				e.SetCreatedAt(s.now().UTC())
			}
		}

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		idKey := itob(e.GetLocalID())
		if err := rows.Put(idKey, data); err != nil {
			return err
		}
		return index.Put(extKey, idKey)
	})
	if err != nil {
		e.SetLocalID(prevID)
		e.SetCreatedAt(prevCreated)
		return 0, err
	}

	s.invalidate(e.GetLocalID())
	return e.GetLocalID(), nil
}

// DeleteAll removes every row. Bucket sequences survive so local IDs are never reused.
func (s *BoltStore[T, P]) DeleteAll(ctx context.Context) error {
	defer s.invalidate()

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{s.rows, s.index} {
			b := tx.Bucket(bucket)
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.First() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
