package checkout

import "sync"

// Registry keeps one Flow per session so the current step survives between
// requests, mirroring the storefront's per-tab flow state.
type Registry struct {
	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*Flow)}
}

// For returns the session's flow, building it on first use.
func (r *Registry) For(sessionID string, build func() *Flow) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[sessionID]
	if !ok {
		f = build()
		r.flows[sessionID] = f
	}
	return f
}
