package economy

import (
	"sync"

	"github.com/napolitain/aether-sim/internal/errx"
	"github.com/napolitain/aether-sim/internal/models"
)

// DefaultMaxWorkers is the worker-slot limit applied when a spec leaves it unset
const DefaultMaxWorkers = 3

// SourceSpec describes a gather point at map setup
type SourceSpec struct {
	ID           models.SourceID
	Kind         models.ResourceKind
	Remaining    int  // ignored when Infinite
	Infinite     bool // persistent source, never depletes
	YieldPerTick int
	MaxWorkers   int  // 0 means DefaultMaxWorkers
	Capturable   bool // neutral point (e.g. an Aether well) that players can claim
	Owner        models.PlayerID
}

// Source is a depletable or persistent gather point with a fixed number of
// worker slots. Assigned workers keep their assignment order.
type Source struct {
	mu         sync.Mutex
	id         models.SourceID
	kind       models.ResourceKind
	remaining  int
	infinite   bool
	yield      int
	maxWorkers int
	capturable bool
	owner      models.PlayerID
	workers    []models.WorkerID
}

// SourceSnapshot is an immutable copy of a source's state
type SourceSnapshot struct {
	ID         models.SourceID
	Kind       models.ResourceKind
	Remaining  int
	Infinite   bool
	Depleted   bool
	Yield      int
	MaxWorkers int
	Workers    []models.WorkerID
	Capturable bool
	Owner      models.PlayerID
}

// NewSource validates a spec and creates the source
func NewSource(spec SourceSpec) (*Source, error) {
	if spec.ID == "" {
		return nil, errx.ErrInvalidAmount.WithData("source", "empty id")
	}
	if !spec.Kind.Valid() {
		return nil, errx.ErrInvalidAmount.WithData("kind", spec.Kind)
	}
	if spec.YieldPerTick <= 0 {
		return nil, errx.ErrInvalidAmount.WithData("yield", spec.YieldPerTick)
	}
	if !spec.Infinite && spec.Remaining < 0 {
		return nil, errx.ErrInvalidAmount.WithData("remaining", spec.Remaining)
	}
	if spec.MaxWorkers < 0 {
		return nil, errx.ErrInvalidAmount.WithData("max_workers", spec.MaxWorkers)
	}
	maxWorkers := spec.MaxWorkers
	if maxWorkers == 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Source{
		id:         spec.ID,
		kind:       spec.Kind,
		remaining:  spec.Remaining,
		infinite:   spec.Infinite,
		yield:      spec.YieldPerTick,
		maxWorkers: maxWorkers,
		capturable: spec.Capturable,
		owner:      spec.Owner,
	}, nil
}

// ID returns the source id
func (s *Source) ID() models.SourceID { return s.id }

// Kind returns the resource kind this source yields
func (s *Source) Kind() models.ResourceKind { return s.kind }

// Capturable reports whether players can claim this source
func (s *Source) Capturable() bool { return s.capturable }

// AssignWorker takes a slot for w. Re-assigning an already assigned worker is a no-op.
func (s *Source) AssignWorker(w models.WorkerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(w) >= 0 {
		return nil
	}
	if len(s.workers) >= s.maxWorkers {
		return errx.ErrSlotFull.WithData("source", s.id).WithData("max_workers", s.maxWorkers)
	}
	s.workers = append(s.workers, w)
	return nil
}

// RemoveWorker frees w's slot; it reports whether w was assigned
func (s *Source) RemoveWorker(w models.WorkerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(w)
	if i < 0 {
		return false
	}
	s.workers = append(s.workers[:i], s.workers[i+1:]...)
	return true
}

func (s *Source) indexOf(w models.WorkerID) int {
	for i, id := range s.workers {
		if id == w {
			return i
		}
	}
	return -1
}

// Workers returns the assigned workers in assignment order
func (s *Source) Workers() []models.WorkerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.WorkerID, len(s.workers))
	copy(out, s.workers)
	return out
}

// Gather extracts one worker's yield for this tick.
// Finite sources give min(yield, remaining) and shrink; depleted sources give 0.
func (s *Source) Gather() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.infinite {
		return s.yield
	}
	amount := min(s.yield, s.remaining)
	s.remaining -= amount
	return amount
}

// Depleted reports whether a finite source has nothing left
func (s *Source) Depleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.infinite && s.remaining == 0
}

// Remaining returns what is left; ok is false for infinite sources
func (s *Source) Remaining() (remaining int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining, !s.infinite
}

// Owner returns the current claimant, zero when unclaimed
func (s *Source) Owner() models.PlayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

// Capture claims a capturable source for p, replacing any other claim
// (last capture wins). It returns the previous owner.
func (s *Source) Capture(p models.PlayerID) (models.PlayerID, error) {
	if p == 0 {
		return 0, errx.ErrUnknownPlayer.WithData("player", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.capturable {
		return 0, errx.ErrNotCapturable.WithData("source", s.id)
	}
	prev := s.owner
	s.owner = p
	return prev, nil
}

// Release clears the claim and returns the previous owner
func (s *Source) Release() models.PlayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.owner
	s.owner = 0
	return prev
}

// Snapshot returns a copy of the source state
func (s *Source) Snapshot() SourceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	workers := make([]models.WorkerID, len(s.workers))
	copy(workers, s.workers)
	return SourceSnapshot{
		ID:         s.id,
		Kind:       s.kind,
		Remaining:  s.remaining,
		Infinite:   s.infinite,
		Depleted:   !s.infinite && s.remaining == 0,
		Yield:      s.yield,
		MaxWorkers: s.maxWorkers,
		Workers:    workers,
		Capturable: s.capturable,
		Owner:      s.owner,
	}
}
