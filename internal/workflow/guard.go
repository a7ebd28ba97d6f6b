package workflow

import "sync"

type DrawerKind string

const (
	DrawerCreate DrawerKind = "create"
	DrawerEdit   DrawerKind = "edit"
)

// Guard admits one in-flight submission per drawer session, keyed by operator
// and drawer kind.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// Acquire returns ErrBusy when the session already has a submission running.
// The returned release func must be called once the submission finishes.
func (g *Guard) Acquire(operator string, kind DrawerKind) (func(), error) {
	key := operator + "/" + string(kind)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[key]; ok {
		return nil, ErrBusy
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}
