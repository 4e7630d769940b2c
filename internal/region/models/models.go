package models

import "time"

// Option is one selectable entry of a level's list. Options are immutable
// once fetched.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ContainsCode reports whether code is present in options.
func ContainsCode(options []Option, code string) bool {
	for _, o := range options {
		if o.Code == code {
			return true
		}
	}
	return false
}

// ListStatus is the per-level state of an option list.
type ListStatus string

const (
	ListIdle    ListStatus = "idle"
	ListLoading ListStatus = "loading"
	ListReady   ListStatus = "ready"
	ListStale   ListStatus = "stale"
	ListFailed  ListStatus = "failed"
)

// OptionList is the option list shown for one level. Options keep server
// order. ParentCode records which parent the list was fetched for.
type OptionList struct {
	Level      Level      `json:"level"`
	Options    []Option   `json:"options"`
	Status     ListStatus `json:"status"`
	ParentCode string     `json:"parent_code,omitempty"`
}

// Enabled reports whether the level's field can be used.
func (l OptionList) Enabled() bool {
	return l.Status == ListReady
}

// CacheKey identifies one catalog query.
type CacheKey struct {
	Level      Level
	ParentCode string
}

func (k CacheKey) String() string {
	return k.Level.String() + ":" + k.ParentCode
}

// CacheEntry is a resolved catalog query. Seq increases with every entry the
// owning cache stores.
type CacheEntry struct {
	Key       CacheKey
	Options   []Option
	Seq       uint64
	FetchedAt time.Time
}

// ErrorKind classifies a level-scoped failure.
type ErrorKind string

const (
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindNetwork            ErrorKind = "network_error"
	ErrorKindValidationMismatch ErrorKind = "validation_mismatch"
)

// LevelError is recorded against a single level and surfaced as a field
// error. It never propagates to other levels.
type LevelError struct {
	Level     Level     `json:"level"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Retryable bool      `json:"retryable"`
}

func (e *LevelError) Error() string {
	return e.Level.String() + ": " + string(e.Kind) + ": " + e.Message
}
