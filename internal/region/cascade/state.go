package cascade

import (
	"slices"

	"alumni/internal/region/models"
)

// State is a point-in-time snapshot of a controller. It shares no memory
// with the controller.
type State struct {
	Selection        models.Selection                     `json:"selection"`
	Options          [models.LevelCount]models.OptionList `json:"options"`
	PostalCode       string                               `json:"postal_code,omitempty"`
	PostalAutoFilled bool                                 `json:"postal_auto_filled"`
	PostalError      string                               `json:"postal_error,omitempty"`
	LoadingLevels    []models.Level                       `json:"loading_levels"`
	Errors           []models.LevelError                  `json:"errors,omitempty"`
	Settled          bool                                 `json:"settled"`
}

// Error returns the error recorded against level, if any.
func (s State) Error(level models.Level) (models.LevelError, bool) {
	for _, e := range s.Errors {
		if e.Level == level {
			return e, true
		}
	}
	return models.LevelError{}, false
}

// Loading reports whether level has a fetch in flight.
func (s State) Loading(level models.Level) bool {
	return slices.Contains(s.LoadingLevels, level)
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Selection:        c.selection,
		PostalCode:       c.postalCode,
		PostalAutoFilled: c.postalAuto,
		PostalError:      c.postalErr,
		LoadingLevels:    []models.Level{},
		Settled:          c.settledLocked(),
	}
	for _, l := range models.Levels {
		list := c.lists[l]
		list.Options = slices.Clone(list.Options)
		if list.Options == nil {
			list.Options = []models.Option{}
		}
		s.Options[l] = list
		if list.Status == models.ListLoading {
			s.LoadingLevels = append(s.LoadingLevels, l)
		}
		if e := c.levelErrs[l]; e != nil {
			s.Errors = append(s.Errors, *e)
		}
	}
	return s
}

func (c *Controller) settledLocked() bool {
	if c.walking || c.postalPending || c.debounceTimer != nil {
		return false
	}
	for _, list := range c.lists {
		if list.Status == models.ListLoading {
			return false
		}
	}
	return true
}
