package listsync

import "sync"

// Registry associa as assinaturas vivas à identidade que as abriu, para que todas
// sejam liberadas quando a identidade deixa de valer (logout, revogação).
type Registry struct {
	mu    sync.Mutex
	byUID map[string]map[*Subscription]struct{}
}

func NewRegistry() *Registry {
	return &Registry{byUID: make(map[string]map[*Subscription]struct{})}
}

// Track registra sub para uid. A função devolvida remove o registro.
func (r *Registry) Track(uid string, sub *Subscription) (untrack func()) {
	r.mu.Lock()
	subs, ok := r.byUID[uid]
	if !ok {
		subs = make(map[*Subscription]struct{})
		r.byUID[uid] = subs
	}
	subs[sub] = struct{}{}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if subs, ok := r.byUID[uid]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(r.byUID, uid)
			}
		}
	}
}

// Count devolve quantas assinaturas uid mantém abertas.
func (r *Registry) Count(uid string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUID[uid])
}

// ReleaseAll libera todas as assinaturas de uid e devolve quantas eram.
func (r *Registry) ReleaseAll(uid string) int {
	r.mu.Lock()
	subs := r.byUID[uid]
	delete(r.byUID, uid)
	r.mu.Unlock()

	for sub := range subs {
		sub.Unsubscribe()
	}
	return len(subs)
}
