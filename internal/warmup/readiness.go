package warmup

import (
	"sync/atomic"
	"time"

	"github.com/campusnav/campus-navigator-go/internal/resolver"
)

// Status is the readiness payload served by /readyz.
type Status struct {
	Ready     bool      `json:"ready"`
	Reason    string    `json:"reason,omitempty"`
	Version   string    `json:"version,omitempty"`
	Entities  int       `json:"entities"`
	Chunks    int       `json:"chunks"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}

// Readiness records dataset load outcomes. The service is ready once any
// snapshot has been installed; a later failed reload keeps it ready and
// only records the error.
type Readiness struct {
	status atomic.Pointer[Status]
}

// NewReadiness returns a gate that is not ready.
func NewReadiness() *Readiness {
	r := &Readiness{}
	r.status.Store(&Status{Reason: "dataset loading"})
	return r
}

// MarkLoaded records a successful load of snap.
func (r *Readiness) MarkLoaded(snap *resolver.Snapshot) {
	r.status.Store(&Status{
		Ready:    true,
		Version:  snap.Version,
		Entities: snap.Catalog.Len(),
		Chunks:   snap.Corpus.Len(),
		LoadedAt: snap.LoadedAt,
	})
}

// MarkFailed records a failed load.
func (r *Readiness) MarkFailed(err error) {
	for {
		old := r.status.Load()
		next := *old
		next.LastError = err.Error()
		if !next.Ready {
			next.Reason = "dataset load failed"
		}
		if r.status.CompareAndSwap(old, &next) {
			return
		}
	}
}

// IsReady reports whether a dataset has been loaded.
func (r *Readiness) IsReady() bool {
	return r.status.Load().Ready
}

// Status returns a copy of the current state.
func (r *Readiness) Status() Status {
	return *r.status.Load()
}
