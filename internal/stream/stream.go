// Package stream fan-outs score ledger events to live subscribers (the SSE
// feed behind the staff dashboard's recent-activity view).
package stream

import (
	"context"
	"sync"
	"time"
)

// ScoreEvent describes one write to the score ledger.
type ScoreEvent struct {
	Action      string    `json:"action"` // "submitted", "updated" or "deleted"
	StudentID   string    `json:"studentId"`
	SubjectID   string    `json:"subjectId"`
	SubjectName string    `json:"subjectName,omitempty"`
	Semester    string    `json:"semester"`
	FinalScore  float64   `json:"finalScore"`
	LetterGrade string    `json:"letterGrade"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stream fan-outs score events to all active subscribers.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan ScoreEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan ScoreEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan ScoreEvent {
	ch := make(chan ScoreEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt ScoreEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
