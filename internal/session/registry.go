package session

import "sync"

// Registry tracks which identities passed PIN verification during the
// current process lifetime. It is deliberately memory-only: every cold start
// forgets all verifications, so an existing PIN is always re-demanded.
type Registry struct {
	mu       sync.RWMutex
	verified map[string]bool
}

// NewRegistry creates an empty registry. Build exactly one per process and
// inject it; verification state must not hide in a package-level singleton.
func NewRegistry() *Registry {
	return &Registry{verified: make(map[string]bool)}
}

// MarkVerified records a successful PIN verification for the identity.
func (r *Registry) MarkVerified(identityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verified[identityID] = true
}

// Verified reports whether the identity verified its PIN this process.
func (r *Registry) Verified(identityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.verified[identityID]
}

// Invalidate clears the verification mark, e.g. after a PIN reset.
func (r *Registry) Invalidate(identityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.verified, identityID)
}
