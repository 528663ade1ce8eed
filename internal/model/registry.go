package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"locktrack/internal/interval"
	"locktrack/internal/loader"
	"locktrack/internal/obs"
)

// ErrInvalidResourceID is returned when a resource identifier is empty
// or blank after trimming.
var ErrInvalidResourceID = errors.New("invalid resource id")

// Registry maps resource identifiers to their interval stores. Stores
// are created lazily on first reference, including queries, so an
// unknown resource answers FREE rather than erroring. Not safe for
// concurrent use; callers serialize access.
type Registry struct {
	stores  map[string]*interval.Store
	logger  *obs.Logger
	metrics *obs.Metrics
}

func NewRegistry(logger *obs.Logger, metrics *obs.Metrics) *Registry {
	return &Registry{
		stores:  make(map[string]*interval.Store),
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Registry) observeLatency(op string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func (r *Registry) incQuery(op, result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.QueryTotal.WithLabelValues(op, result).Inc()
}

func validateResourceID(resourceID string) error {
	if strings.TrimSpace(resourceID) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidResourceID, resourceID)
	}
	return nil
}

// store gets-or-creates the store for resourceID. The id is assumed
// validated by the caller.
func (r *Registry) store(resourceID string) *interval.Store {
	s, ok := r.stores[resourceID]
	if !ok {
		s = interval.NewStore(resourceID)
		r.stores[resourceID] = s
	}
	return s
}

// AddLock validates the resource id and inserts iv into its store.
// The interval itself carries no failure modes here; construction
// already validated it.
func (r *Registry) AddLock(resourceID string, iv interval.Interval) error {
	start := time.Now()

	if err := validateResourceID(resourceID); err != nil {
		if r.metrics != nil {
			r.metrics.AddTotal.WithLabelValues("invalid").Inc()
		}
		return err
	}

	r.store(resourceID).Insert(iv)

	if r.metrics != nil {
		r.metrics.AddTotal.WithLabelValues("success").Inc()
	}
	r.observeLatency("add", start)

	if r.logger != nil {
		r.logger.Info(map[string]interface{}{
			"op":         "add_lock",
			"resource":   resourceID,
			"start":      iv.Start,
			"end":        iv.End,
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
	return nil
}

// StatusAt answers LOCKED or FREE for resourceID at time t.
func (r *Registry) StatusAt(resourceID string, t int64) (interval.Status, error) {
	start := time.Now()
	if err := validateResourceID(resourceID); err != nil {
		r.incQuery("status", "invalid")
		return interval.StatusFree, err
	}
	st, err := r.store(resourceID).StatusAt(t)
	if err != nil {
		r.incQuery("status", "invalid")
		return interval.StatusFree, err
	}
	r.incQuery("status", "ok")
	r.observeLatency("status", start)
	return st, nil
}

// HasCollisionAt reports whether two locks overlap at t.
func (r *Registry) HasCollisionAt(resourceID string, t int64) (bool, error) {
	start := time.Now()
	if err := validateResourceID(resourceID); err != nil {
		r.incQuery("collision_at", "invalid")
		return false, err
	}
	col, err := r.store(resourceID).HasCollisionAt(t)
	if err != nil {
		r.incQuery("collision_at", "invalid")
		return false, err
	}
	r.incQuery("collision_at", "ok")
	r.observeLatency("collision_at", start)
	return col, nil
}

// FirstCollision returns the first overlapping adjacent pair, as a
// zero-or-one element slice.
func (r *Registry) FirstCollision(resourceID string) ([]interval.Pair, error) {
	start := time.Now()
	if err := validateResourceID(resourceID); err != nil {
		r.incQuery("first_collision", "invalid")
		return nil, err
	}
	pairs := r.store(resourceID).FirstCollision()
	r.incQuery("first_collision", "ok")
	r.observeLatency("first_collision", start)
	return pairs, nil
}

// AllCollisions returns every overlapping adjacent pair in scan order.
func (r *Registry) AllCollisions(resourceID string) ([]interval.Pair, error) {
	start := time.Now()
	if err := validateResourceID(resourceID); err != nil {
		r.incQuery("all_collisions", "invalid")
		return nil, err
	}
	pairs := r.store(resourceID).Collisions(true)
	r.incQuery("all_collisions", "ok")
	r.observeLatency("all_collisions", start)
	return pairs, nil
}

// LoadReport summarizes a batch load.
type LoadReport struct {
	Loaded  int
	Skipped int
}

// LoadRecords applies a batch in order. A record that fails interval
// construction or id validation is skipped and the batch continues;
// nothing propagates out of the loop. This is the one recovery
// boundary: everywhere else validation errors go straight to the
// caller.
func (r *Registry) LoadRecords(records []loader.Record) LoadReport {
	start := time.Now()
	rep := LoadReport{}

	for _, rec := range records {
		iv, err := interval.New(rec.Start, rec.End)
		if err != nil {
			rep.Skipped++
			continue
		}
		if err := validateResourceID(rec.ResourceID); err != nil {
			rep.Skipped++
			continue
		}
		r.store(rec.ResourceID).Insert(iv)
		rep.Loaded++
	}

	if r.metrics != nil {
		r.metrics.RecordsLoadedTotal.Add(float64(rep.Loaded))
		r.metrics.RecordsSkippedTotal.Add(float64(rep.Skipped))
	}
	r.observeLatency("load", start)

	if r.logger != nil {
		r.logger.Info(map[string]interface{}{
			"op":         "load_records",
			"loaded":     rep.Loaded,
			"skipped":    rep.Skipped,
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
	return rep
}

// Stats is the monitor's view of the registry.
type Stats struct {
	Resources      int
	Intervals      int
	CollisionPairs int
}

// Stats walks every store. O(total intervals); meant for the periodic
// monitor, not the hot path.
func (r *Registry) Stats() Stats {
	st := Stats{Resources: len(r.stores)}
	for _, s := range r.stores {
		st.Intervals += s.Len()
		st.CollisionPairs += len(s.Collisions(true))
	}
	return st
}
