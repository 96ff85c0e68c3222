package fee

import (
	"strconv"
	"sync"
	"time"
)

// keyedMutex serializes work per key. Entries are dropped once no one holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock func.
func (km *keyedMutex) Lock(key string) (unlock func()) {
	km.mu.Lock()
	m, ok := km.locks[key]
	if !ok {
		m = new(refMutex)
		km.locks[key] = m
	}
	m.refs++
	km.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		km.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

// receiptSequence issues REC-<unix millis> receipt numbers, strictly increasing within the process.
type receiptSequence struct {
	mu   sync.Mutex
	last int64
}

var receipts receiptSequence

func (seq *receiptSequence) next(now time.Time) string {
	seq.mu.Lock()
	defer seq.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= seq.last {
		ms = seq.last + 1
	}
	seq.last = ms
	return "REC-" + strconv.FormatInt(ms, 10)
}
