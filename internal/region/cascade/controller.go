// Package cascade resolves the dependent province, regency, district and
// village selectors of one form. A Controller owns the selection, the option
// list of every level and the derived postal code, and is the only component
// that triggers catalog fetches.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"alumni/internal/region/cache"
	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

// DefaultDebounce is the quiet period before a rehydration walk starts.
const DefaultDebounce = 400 * time.Millisecond

// Controller owns the selection and option lists of one region selector.
// It is safe for concurrent use.
type Controller struct {
	source       providers.RegionDataSource
	postal       providers.PostalCodeResolver
	cache        *cache.RegionCache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	clock        clockwork.Clock
	debounce     time.Duration
	fetchTimeout time.Duration
	parentOf     models.ParentFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	changed   chan struct{}
	selection models.Selection
	lists     [models.LevelCount]models.OptionList
	levelErrs [models.LevelCount]*models.LevelError
	// tokens tag the most recent fetch issued per level
	tokens [models.LevelCount]uint64

	walkGen uint64
	walking bool
	halted  *haltedWalk

	debounceGen   uint64
	debounceTimer clockwork.Timer

	postalCode    string
	postalAuto    bool
	postalErr     string
	postalToken   uint64
	postalPending bool
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithClock replaces the clock driving the rehydration debounce.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithDebounce sets the rehydration debounce window. Zero starts every
// rehydration immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithFetchTimeout bounds how long the controller waits for one list or
// postal lookup.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.fetchTimeout = d
	}
}

// WithCache shares a RegionCache. By default every controller owns one.
func WithCache(rc *cache.RegionCache) Option {
	return func(c *Controller) {
		c.cache = rc
	}
}

// WithParentInference sets how Rehydrate fills missing ancestors. Nil
// disables inference.
func WithParentInference(fn models.ParentFunc) Option {
	return func(c *Controller) {
		c.parentOf = fn
	}
}

// New returns an unmounted controller. postal may be nil, in which case no
// postal code is ever derived.
func New(source providers.RegionDataSource, postal providers.PostalCodeResolver, opts ...Option) (*Controller, error) {
	if source == nil {
		return nil, providers.ErrNoSource
	}
	c := &Controller{
		source:   source,
		postal:   postal,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		parentOf: models.KemendagriParent,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		cacheOpts := []cache.Option{cache.WithMetrics(c.metrics)}
		if c.fetchTimeout > 0 {
			cacheOpts = append(cacheOpts, cache.WithFetchTimeout(c.fetchTimeout))
		}
		rc, err := cache.New(cacheOpts...)
		if err != nil {
			return nil, fmt.Errorf("create region cache: %w", err)
		}
		c.cache = rc
	}
	for _, l := range models.Levels {
		c.lists[l] = models.OptionList{Level: l, Status: models.ListIdle}
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Mount loads the province list. The controller is closed when ctx ends.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	context.AfterFunc(ctx, c.Close)
	if c.lists[models.LevelProvince].Status == models.ListIdle {
		c.fetchListLocked(models.LevelProvince, "")
		c.notifyLocked()
	}
	return nil
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnUserSelect applies a user choice at level. An empty code clears the
// level. Every descendant is cleared, and the immediate child list is loaded
// for the new code. Any pending or running rehydration is abandoned.
func (c *Controller) OnUserSelect(level models.Level, code string) error {
	if !level.IsValid() {
		return ErrInvalidLevel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if code != "" {
		if parent, ok := level.Parent(); ok && c.selection.Get(parent) == "" {
			return fmt.Errorf("%s has no %s selected: %w", level, parent, ErrLevelDisabled)
		}
		list := c.lists[level]
		if !list.Enabled() {
			return fmt.Errorf("%s list is %s: %w", level, list.Status, ErrLevelDisabled)
		}
		if !models.ContainsCode(list.Options, code) {
			return fmt.Errorf("%s %q: %w", level, code, ErrUnknownCode)
		}
	}

	c.cancelDebounceLocked()
	c.cancelWalkLocked()

	prevVillage := c.selection.Village
	c.selection.Set(level, code)
	c.levelErrs[level] = nil
	c.resetBelowLocked(level)
	c.villageChangedLocked(prevVillage)

	if child, ok := level.Child(); ok && code != "" {
		c.fetchListLocked(child, code)
	}
	if level == models.LevelVillage && code != "" {
		c.startPostalLocked(code)
	}
	c.logger.Debug("region selected", "level", level.String(), "code", code)
	c.notifyLocked()
	return nil
}

// OnPostalCodeManualEdit records a value typed by the user. Later lookups
// never overwrite a non-empty manual value.
func (c *Controller) OnPostalCodeManualEdit(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.postalCode = strings.TrimSpace(value)
	c.postalAuto = false
	c.notifyLocked()
	return nil
}

// Retry reissues the failed fetch at level. A halted rehydration resumes from
// that level with the codes it was restoring.
func (c *Controller) Retry(level models.Level) error {
	if !level.IsValid() {
		return ErrInvalidLevel
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	levelErr := c.levelErrs[level]
	if levelErr == nil || !levelErr.Retryable {
		if level == models.LevelVillage && c.postalErr != "" && c.selection.Village != "" {
			c.startPostalLocked(c.selection.Village)
			c.notifyLocked()
			return nil
		}
		return fmt.Errorf("%s: %w", level, ErrNothingToRetry)
	}

	if h := c.halted; h != nil && h.level == level {
		c.startWalkLocked(c.selection, level)
		c.notifyLocked()
		return nil
	}
	parent := ""
	if p, ok := level.Parent(); ok {
		parent = c.selection.Get(p)
		if parent == "" {
			return fmt.Errorf("%s: %w", level, ErrNothingToRetry)
		}
	}
	c.fetchListLocked(level, parent)
	c.notifyLocked()
	return nil
}

// Changes returns a channel closed on the next state change.
func (c *Controller) Changes() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// WaitSettled blocks until no list fetch, walk, postal lookup or debounce
// timer is pending.
func (c *Controller) WaitSettled(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.settledLocked() {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close unmounts the controller. Results arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelDebounceLocked()
	c.cancelWalkLocked()
	c.cancel()
	c.notifyLocked()
}

func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// resetBelowLocked clears the selection, list and error of every level below
// level and invalidates their in-flight fetches.
func (c *Controller) resetBelowLocked(level models.Level) {
	for _, d := range level.Descendants() {
		c.selection.Set(d, "")
		c.tokens[d]++
		c.lists[d] = models.OptionList{Level: d, Status: models.ListIdle}
		c.levelErrs[d] = nil
	}
}

// load fetches a list through the cache, bounded by the fetch timeout.
func (c *Controller) load(level models.Level, parent string) ([]models.Option, error) {
	ctx := c.ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}
	key := models.CacheKey{Level: level, ParentCode: parent}
	return c.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]models.Option, error) {
		return c.source.FetchChildren(ctx, level, parent)
	})
}

// beginLoadLocked marks level loading for parent and returns the token the
// result must still match when it arrives.
func (c *Controller) beginLoadLocked(level models.Level, parent string) uint64 {
	c.tokens[level]++
	c.lists[level] = models.OptionList{Level: level, Status: models.ListLoading, ParentCode: parent}
	c.levelErrs[level] = nil
	return c.tokens[level]
}

func (c *Controller) currentLocked(level models.Level, parent string, token uint64) bool {
	return !c.closed && c.tokens[level] == token && c.lists[level].ParentCode == parent
}

// fetchListLocked issues a cascade fetch for level.
func (c *Controller) fetchListLocked(level models.Level, parent string) {
	token := c.beginLoadLocked(level, parent)
	go func() {
		options, err := c.load(level, parent)

		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.currentLocked(level, parent, token) {
			c.discardLocked(level, parent)
			return
		}
		if err != nil {
			c.failLevelLocked(level, parent, err)
		} else {
			c.readyLocked(level, parent, options)
		}
		c.notifyLocked()
	}()
}

func (c *Controller) discardLocked(level models.Level, parent string) {
	c.metrics.RecordStaleDiscard(level.String())
	c.logger.Debug("stale region result discarded", "level", level.String(), "parent", parent)
}

func (c *Controller) readyLocked(level models.Level, parent string, options []models.Option) {
	c.lists[level] = models.OptionList{
		Level:      level,
		Options:    options,
		Status:     models.ListReady,
		ParentCode: parent,
	}
}

// failLevelLocked records a fetch failure against level. A not_found clears
// the level and everything below it; any other failure keeps the selection
// so the fetch can be retried.
func (c *Controller) failLevelLocked(level models.Level, parent string, err error) *models.LevelError {
	c.lists[level] = models.OptionList{Level: level, Status: models.ListFailed, ParentCode: parent}
	levelErr := &models.LevelError{Level: level, Code: c.selection.Get(level)}
	if providers.IsNotFound(err) {
		levelErr.Kind = models.ErrorKindNotFound
		levelErr.Message = fmt.Sprintf("%s list for %q no longer exists", level, parent)
		prevVillage := c.selection.Village
		c.selection.Set(level, "")
		c.resetBelowLocked(level)
		c.villageChangedLocked(prevVillage)
	} else {
		levelErr.Kind = models.ErrorKindNetwork
		levelErr.Message = errorMessage(err)
		levelErr.Retryable = true
	}
	c.levelErrs[level] = levelErr
	c.metrics.RecordLevelError(level.String(), string(levelErr.Kind))
	c.logger.Warn("region fetch failed",
		"level", level.String(),
		"parent", parent,
		"kind", string(levelErr.Kind),
		"error", err,
	)
	return levelErr
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "catalog lookup timed out"
	case errors.Is(err, context.Canceled):
		return "catalog lookup canceled"
	}
	return string(providers.GetCategory(err)) + ": " + err.Error()
}
