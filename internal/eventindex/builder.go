package eventindex

import (
	"fmt"
	"sync"
	"time"

	"github.com/oliwoli/castcut/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

// Builder constructs one Index per bundle key and caches it, collapsing
// concurrent build requests for the same bundle into a single build — the
// same dedup shape the teacher uses for concurrent waveform generation
// (singleflight.Group.Do keyed by cache key).
type Builder struct {
	group singleflight.Group
	cache cache
}

type cache struct {
	mu sync.Mutex
	m  map[string]*Index
}

// Source supplies the raw, not-yet-validated event streams for a bundle.
// internal/server supplies one that returns the streams internal/bundle
// has already read from the sidecar files described in spec §6.
type Source func() (moves []MouseMove, clicks []MouseClick, err error)

// Build returns the Index for key, building it at most once even under
// concurrent callers. A build failure (streams violating invariant M) is
// not cached: the next call retries.
func (b *Builder) Build(key string, src Source) (*Index, error) {
	b.cache.mu.Lock()
	if b.cache.m == nil {
		b.cache.m = make(map[string]*Index)
	}
	if idx, ok := b.cache.m[key]; ok {
		b.cache.mu.Unlock()
		return idx, nil
	}
	b.cache.mu.Unlock()

	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		// A caller that missed the cache above may arrive after another
		// build for key has already finished and been cached.
		b.cache.mu.Lock()
		if idx, ok := b.cache.m[key]; ok {
			b.cache.mu.Unlock()
			return idx, nil
		}
		b.cache.mu.Unlock()

		start := time.Now()
		defer func() { telemetry.EventIndexBuildDuration.Observe(time.Since(start).Seconds()) }()

		moves, clicks, err := src()
		if err != nil {
			return nil, err
		}
		if !IsSorted(moves, clicks) {
			return nil, fmt.Errorf("eventindex: bundle %q violates monotonicity invariant M", key)
		}
		idx := New(moves, clicks)
		b.cache.mu.Lock()
		b.cache.m[key] = idx
		b.cache.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}
