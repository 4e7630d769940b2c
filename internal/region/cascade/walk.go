package cascade

import (
	"alumni/internal/region/models"
)

// haltedWalk remembers where a rehydration stopped on a retryable failure.
type haltedWalk struct {
	level models.Level
}

// Rehydrate restores a selection snapshot, for example one saved by an
// earlier form step. Missing ancestors are inferred from the codes when
// possible and anything below a remaining gap is dropped. Calls within the
// debounce window are coalesced; only the last one starts a walk.
func (c *Controller) Rehydrate(partial models.Selection) error {
	target := models.InferAncestors(partial, c.parentOf).Truncated()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if target != partial {
		c.logger.Debug("rehydration snapshot normalized",
			"requested", partial,
			"normalized", target,
		)
	}

	c.cancelDebounceLocked()
	if c.debounce <= 0 {
		c.startWalkLocked(target, models.LevelProvince)
		c.notifyLocked()
		return nil
	}
	c.debounceGen++
	gen := c.debounceGen
	c.debounceTimer = c.clock.AfterFunc(c.debounce, func() {
		c.fireDebounce(gen, target)
	})
	c.notifyLocked()
	return nil
}

func (c *Controller) fireDebounce(gen uint64, target models.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.debounceGen {
		return
	}
	c.debounceTimer = nil
	c.startWalkLocked(target, models.LevelProvince)
	c.notifyLocked()
}

func (c *Controller) cancelDebounceLocked() {
	c.debounceGen++
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

func (c *Controller) cancelWalkLocked() {
	if c.walking {
		c.metrics.RecordWalk("superseded")
	}
	c.walkGen++
	c.walking = false
	c.halted = nil
}

// startWalkLocked validates target top-down from level from. Every in-flight
// fetch is invalidated; levels above from are kept as they are.
func (c *Controller) startWalkLocked(target models.Selection, from models.Level) {
	c.cancelWalkLocked()
	gen := c.walkGen
	c.walking = true

	for _, l := range models.Levels {
		c.tokens[l]++
		if l < from {
			continue
		}
		c.levelErrs[l] = nil
		list := c.lists[l]
		if (list.Status == models.ListReady || list.Status == models.ListStale) && list.ParentCode == parentCode(target, l) {
			list.Status = models.ListStale
			c.lists[l] = list
			continue
		}
		c.lists[l] = models.OptionList{Level: l, Status: models.ListIdle}
	}

	prevVillage := c.selection.Village
	c.selection = target
	c.villageChangedLocked(prevVillage)

	c.metrics.RecordWalk("started")
	c.logger.Debug("rehydration walk started", "from", from.String(), "target", target)
	go c.runWalk(gen, target, from)
}

func parentCode(s models.Selection, level models.Level) string {
	if p, ok := level.Parent(); ok {
		return s.Get(p)
	}
	return ""
}

// runWalk fetches each level in order, waiting for and validating one level
// before issuing the next fetch. It stops as soon as another walk or a user
// select supersedes it.
func (c *Controller) runWalk(gen uint64, target models.Selection, from models.Level) {
	for level := from; level.IsValid(); level++ {
		parent := parentCode(target, level)

		c.mu.Lock()
		if c.closed || c.walkGen != gen {
			c.mu.Unlock()
			return
		}
		if level != models.LevelProvince && parent == "" {
			c.finishWalkLocked("completed")
			c.notifyLocked()
			c.mu.Unlock()
			return
		}
		token := c.beginLoadLocked(level, parent)
		c.notifyLocked()
		c.mu.Unlock()

		options, err := c.load(level, parent)

		c.mu.Lock()
		if c.walkGen != gen || !c.currentLocked(level, parent, token) {
			c.discardLocked(level, parent)
			c.mu.Unlock()
			return
		}
		next := c.walkStepLocked(level, parent, target.Get(level), options, err)
		c.notifyLocked()
		c.mu.Unlock()
		if !next {
			return
		}
	}
}

// walkStepLocked applies one fetched level and reports whether the walk
// continues to the next level.
func (c *Controller) walkStepLocked(level models.Level, parent, code string, options []models.Option, err error) bool {
	if err != nil {
		levelErr := c.failLevelLocked(level, parent, err)
		if levelErr.Retryable {
			c.finishWalkLocked("failed")
			c.halted = &haltedWalk{level: level}
			return false
		}
		c.finishWalkLocked("not_found")
		return false
	}

	c.readyLocked(level, parent, options)
	if code == "" {
		c.finishWalkLocked("completed")
		return false
	}
	if !models.ContainsCode(options, code) {
		prevVillage := c.selection.Village
		c.selection.Set(level, "")
		c.resetBelowLocked(level)
		c.villageChangedLocked(prevVillage)
		c.levelErrs[level] = &models.LevelError{
			Level:   level,
			Kind:    models.ErrorKindValidationMismatch,
			Message: "restored " + level.String() + " is not in the list for " + parent,
			Code:    code,
		}
		c.metrics.RecordLevelError(level.String(), string(models.ErrorKindValidationMismatch))
		c.logger.Info("restored region no longer valid",
			"level", level.String(),
			"parent", parent,
			"code", code,
		)
		c.finishWalkLocked("mismatch")
		return false
	}
	if level == models.LevelVillage {
		c.startPostalLocked(code)
		c.finishWalkLocked("completed")
		return false
	}
	return true
}

func (c *Controller) finishWalkLocked(outcome string) {
	c.walking = false
	c.metrics.RecordWalk(outcome)
	c.logger.Debug("rehydration walk finished", "outcome", outcome)
}
