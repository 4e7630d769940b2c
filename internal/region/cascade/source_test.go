package cascade_test

import (
	"context"
	"sync"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/internal/region/store"
)

// gatedSource wraps the seeded catalog. Keys and postal lookups can be held
// until released, keys can be made to fail, and every call is counted.
type gatedSource struct {
	inner *store.MemoryCatalog

	mu          sync.Mutex
	gates       map[models.CacheKey]chan struct{}
	errs        map[models.CacheKey]error
	calls       map[models.CacheKey]int
	postalGates map[string]chan struct{}
	postalCalls map[string]int
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		inner: store.NewSeededCatalog(),
		gates: make(map[models.CacheKey]chan struct{}),
		errs:  make(map[models.CacheKey]error),
		calls: make(map[models.CacheKey]int),

		postalGates: make(map[string]chan struct{}),
		postalCalls: make(map[string]int),
	}
}

func key(level models.Level, parent string) models.CacheKey {
	return models.CacheKey{Level: level, ParentCode: parent}
}

func (g *gatedSource) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	k := key(level, parentCode)
	g.mu.Lock()
	g.calls[k]++
	gate := g.gates[k]
	err := g.errs[k]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, providers.FromContext("gated", ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	return g.inner.FetchChildren(ctx, level, parentCode)
}

func (g *gatedSource) ResolvePostalCode(ctx context.Context, villageCode string) (*string, error) {
	g.mu.Lock()
	g.postalCalls[villageCode]++
	gate := g.postalGates[villageCode]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, providers.FromContext("gated", ctx.Err())
		}
	}
	return g.inner.ResolvePostalCode(ctx, villageCode)
}

// hold blocks fetches for k until the returned func is called.
func (g *gatedSource) hold(k models.CacheKey) func() {
	gate := make(chan struct{})
	g.mu.Lock()
	g.gates[k] = gate
	g.mu.Unlock()
	return g.releaser(func() { delete(g.gates, k) }, gate)
}

// holdPostal blocks postal lookups of village until the returned func is
// called.
func (g *gatedSource) holdPostal(village string) func() {
	gate := make(chan struct{})
	g.mu.Lock()
	g.postalGates[village] = gate
	g.mu.Unlock()
	return g.releaser(func() { delete(g.postalGates, village) }, gate)
}

func (g *gatedSource) releaser(forget func(), gate chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			forget()
			g.mu.Unlock()
			close(gate)
		})
	}
}

func (g *gatedSource) postalCallCount(village string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.postalCalls[village]
}

func (g *gatedSource) fail(k models.CacheKey, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.errs, k)
		return
	}
	g.errs[k] = err
}

func (g *gatedSource) callCount(k models.CacheKey) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[k]
}

// postalStub returns a fixed answer and counts lookups.
type postalStub struct {
	mu     sync.Mutex
	answer map[string]string
	calls  int
}

func (p *postalStub) ResolvePostalCode(_ context.Context, villageCode string) (*string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	v, ok := p.answer[villageCode]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (p *postalStub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
