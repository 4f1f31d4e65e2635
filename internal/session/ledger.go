package session

import (
	"sync"
	"time"

	"github.com/sant0-9/memomate/internal/intent"
)

// Record is one (query, response) exchange. Records are never modified after
// they are appended.
type Record struct {
	Query    string      `json:"query"`
	Response string      `json:"response"`
	Task     intent.Task `json:"-"`
	// Failed marks responses that are an inline error rather than an answer.
	Failed bool      `json:"failed"`
	At     time.Time `json:"at"`
}

// Ledger holds the history and distinct topics of a single session. It has no
// size limit and lives as long as the session does.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	topics  []string
	seen    map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		seen: make(map[string]struct{}),
	}
}

// RecordQuery appends an exchange stamped now, tagged with the task its
// query text classifies as, and returns the stored record.
func (l *Ledger) RecordQuery(query, response string) Record {
	r := Record{Query: query, Response: response, Task: intent.Classify(query), At: time.Now()}
	l.Record(r)
	return r
}

// Record appends r in chronological order.
func (l *Ledger) Record(r Record) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// RecordTopic adds topic unless the exact string is already present or empty.
// It reports whether the topic was new.
func (l *Ledger) RecordTopic(topic string) bool {
	if topic == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[topic]; ok {
		return false
	}
	l.seen[topic] = struct{}{}
	l.topics = append(l.topics, topic)
	return true
}

// Queries returns the records most recent first.
func (l *Ledger) Queries() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[len(l.records)-1-i] = r
	}
	return out
}

// Topics returns distinct topics in first-seen order.
func (l *Ledger) Topics() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.topics))
	copy(out, l.topics)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
