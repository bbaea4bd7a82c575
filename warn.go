package texpack

import "sync"

// A WarnFunc receives advisory conditions: the operation still succeeded but
// the output may be lossy (dropped channels, clamped values).
type WarnFunc func(code, message string)

// A WarnSet deduplicates advisory warnings by code for its whole lifetime.
// The conversion and packing stages report through one; a Pool owns one tied
// to its own lifecycle so a repeated condition across many requests surfaces
// to the caller only once.
//
// A nil *WarnSet is valid and drops every warning.
type WarnSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	fn   WarnFunc
}

// NewWarnSet returns a WarnSet forwarding first occurrences to fn.
// fn may be nil, in which case the set only tracks codes.
func NewWarnSet(fn WarnFunc) *WarnSet {
	return &WarnSet{
		seen: make(map[string]struct{}),
		fn:   fn,
	}
}

// Warn reports an advisory condition. Only the first occurrence of each code
// is forwarded.
func (w *WarnSet) Warn(code, message string) {
	if w == nil {
		return
	}

	w.mu.Lock()
	_, dup := w.seen[code]
	if !dup {
		w.seen[code] = struct{}{}
	}
	fn := w.fn
	w.mu.Unlock()

	if !dup && fn != nil {
		fn(code, message)
	}
}

// Seen reports whether the code has already been warned about.
func (w *WarnSet) Seen(code string) bool {
	if w == nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.seen[code]
	return ok
}
