package cascade

import (
	"context"
)

// startPostalLocked looks up the postal code of a validated village. The
// result is applied only if the village is still selected when it arrives.
func (c *Controller) startPostalLocked(village string) {
	if c.postal == nil {
		return
	}
	c.postalToken++
	token := c.postalToken
	c.postalPending = true
	c.postalErr = ""

	go func() {
		ctx := c.ctx
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()
		}
		postal, err := c.postal.ResolvePostalCode(ctx, village)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || token != c.postalToken || c.selection.Village != village {
			c.metrics.RecordPostalLookup("stale")
			return
		}
		c.postalPending = false
		defer c.notifyLocked()

		switch {
		case err != nil:
			c.postalErr = errorMessage(err)
			c.metrics.RecordPostalLookup("error")
			c.logger.Warn("postal code lookup failed", "village", village, "error", err)
		case postal == nil:
			c.metrics.RecordPostalLookup("none")
		case c.postalCode != "" && !c.postalAuto:
			c.metrics.RecordPostalLookup("kept_manual")
		default:
			c.postalCode = *postal
			c.postalAuto = true
			c.metrics.RecordPostalLookup("applied")
		}
	}()
}

// villageChangedLocked drops postal state tied to a village that is no
// longer selected. A manually entered postal code survives.
func (c *Controller) villageChangedLocked(prevVillage string) {
	if c.selection.Village == prevVillage {
		return
	}
	c.postalToken++
	c.postalPending = false
	c.postalErr = ""
	if c.postalAuto {
		c.postalCode = ""
		c.postalAuto = false
	}
}
