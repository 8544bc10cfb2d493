package grn

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Severity of a notification
type Severity int

const (
	// SeverityInfo is a plain blocking notice (validation, preconditions).
	SeverityInfo Severity = iota
	// SeverityFailure is a blocking alert preceded by the audible cue.
	SeverityFailure
)

// Notification is one alert shown to the user
type Notification struct {
	Severity Severity
	Message  string
}

// NotificationSink displays notifications
type NotificationSink interface {
	Alert(n Notification)
}

// Cue produces the audible signal of a failure
type Cue interface {
	Play() error
}

// Notifier routes alerts to a sink, sounding the cue for failures
type Notifier struct {
	Sink   NotificationSink
	Cue    Cue
	Logger *logrus.Logger
}

// Info shows a plain blocking notice
func (n *Notifier) Info(msg string) {
	n.Sink.Alert(Notification{Severity: SeverityInfo, Message: msg})
}

// Failure sounds the cue (best effort) and shows a blocking alert
func (n *Notifier) Failure(msg string) {
	if n.Cue != nil {
		if err := n.Cue.Play(); err != nil && n.Logger != nil {
			n.Logger.WithError(err).Debug("audible cue unavailable")
		}
	}
	n.Sink.Alert(Notification{Severity: SeverityFailure, Message: msg})
}

// Error shows err with the severity its kind calls for
func (n *Notifier) Error(err error) {
	if IsLocal(err) {
		n.Info(err.Error())
		return
	}
	n.Failure(err.Error())
}

// BellCue rings the terminal bell in a short rising burst
type BellCue struct {
	Out   io.Writer
	Count int
	Gap   time.Duration
}

func (b BellCue) Play() error {
	count := b.Count
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if i > 0 && b.Gap > 0 {
			time.Sleep(b.Gap)
		}
		if _, err := io.WriteString(b.Out, "\a"); err != nil {
			return fmt.Errorf("cannot ring bell: %w", err)
		}
	}
	return nil
}

// NoCue is silent
type NoCue struct{}

func (NoCue) Play() error { return nil }

// WriterSink prints notifications, failures in red
type WriterSink struct {
	Out io.Writer
}

func (s WriterSink) Alert(n Notification) {
	if n.Severity == SeverityFailure {
		fmt.Fprintf(s.Out, "%s✗ %s%s\n", Red, n.Message, Reset)
		return
	}
	fmt.Fprintf(s.Out, "%s! %s%s\n", Yellow, n.Message, Reset)
}

// MemorySink records notifications
type MemorySink struct {
	mu    sync.Mutex
	items []Notification
}

func (s *MemorySink) Alert(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
}

// Notifications returns what was recorded so far
func (s *MemorySink) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Last returns the most recent notification
func (s *MemorySink) Last() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return Notification{}, false
	}
	return s.items[len(s.items)-1], true
}

// Drain returns what was recorded and forgets it
func (s *MemorySink) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items
	s.items = nil
	return items
}
