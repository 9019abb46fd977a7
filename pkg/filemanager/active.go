package filemanager

import (
	"slices"
	"sync"
)

// activeJobs is the registry of the jobs submitted and not yet finished, in
// submission order.
//
// Thread Safety:
// add runs on the submission path and remove on the goroutine of the job
// that finished; both are guarded by mu.
type activeJobs struct {
	mu  sync.RWMutex
	ids []string
}

func (a *activeJobs) add(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.ids, id) {
		a.ids = append(a.ids, id)
	}
}

// remove drops id. Unknown ids are ignored.
func (a *activeJobs) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := slices.Index(a.ids, id); i >= 0 {
		a.ids = slices.Delete(a.ids, i, i+1)
	}
}

// list returns a copy of the registry.
func (a *activeJobs) list() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.ids)
}

func (a *activeJobs) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}
