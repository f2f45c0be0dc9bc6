package watchlist

import "sync"

// Latest holds the most recent watchlist result for concurrent readers
type Latest struct {
	mu     sync.RWMutex
	result *Result
}

// Set replaces the stored result
func (l *Latest) Set(r Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = &r
}

// Get returns the stored result, or false before the first run
func (l *Latest) Get() (Result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.result == nil {
		return Result{}, false
	}
	return *l.result, true
}
