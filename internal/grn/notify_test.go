package grn

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNotifierRoutesBySeverity(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		severity  Severity
		cuePlayed int
	}{
		{name: "validation", err: validationError("save", msgAllFields), severity: SeverityInfo},
		{name: "precondition", err: preconditionError("update", msgMissingTxn), severity: SeverityInfo},
		{name: "transport", err: &Error{Kind: KindTransport, Message: "Request failed (502)"}, severity: SeverityFailure, cuePlayed: 1},
		{name: "domain", err: &Error{Kind: KindDomain, Message: "Ledger not found"}, severity: SeverityFailure, cuePlayed: 1},
		{name: "unclassified", err: errors.New("boom"), severity: SeverityFailure, cuePlayed: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &MemorySink{}
			cue := &countingCue{}
			n := &Notifier{Sink: sink, Cue: cue, Logger: testLogger()}

			n.Error(tt.err)

			last, ok := sink.Last()
			if !ok {
				t.Fatal("nothing shown")
			}
			if last.Severity != tt.severity || last.Message != tt.err.Error() {
				t.Fatalf("shown %+v", last)
			}
			if cue.count() != tt.cuePlayed {
				t.Fatalf("cue played %d times, want %d", cue.count(), tt.cuePlayed)
			}
		})
	}
}

type brokenCue struct{}

func (brokenCue) Play() error { return errors.New("no audio") }

func TestFailureShownWhenCueFails(t *testing.T) {
	sink := &MemorySink{}
	n := &Notifier{Sink: sink, Cue: brokenCue{}, Logger: testLogger()}

	n.Failure("Failed to save delivery note")
	if got := sink.Drain(); len(got) != 1 || got[0].Message != "Failed to save delivery note" {
		t.Fatalf("shown %+v", got)
	}
	if len(sink.Notifications()) != 0 {
		t.Fatal("Drain must empty the sink")
	}
}

func TestBellCue(t *testing.T) {
	var buf bytes.Buffer
	if err := (BellCue{Out: &buf, Count: 3}).Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if buf.String() != "\a\a\a" {
		t.Fatalf("wrote %q", buf.String())
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := WriterSink{Out: &buf}

	sink.Alert(Notification{Severity: SeverityFailure, Message: "down"})
	sink.Alert(Notification{Severity: SeverityInfo, Message: "fill all"})

	out := buf.String()
	if !strings.Contains(out, Red+"✗ down") || !strings.Contains(out, Yellow+"! fill all") {
		t.Fatalf("output = %q", out)
	}
}
