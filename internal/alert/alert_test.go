package alert

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestHelpersSetLevel(t *testing.T) {
	rec := &Recorder{}
	Info(rec, "a")
	Success(rec, "b")
	Warning(rec, "c")
	Error(rec, "d")

	got := rec.Alerts()
	want := []Level{LevelInfo, LevelSuccess, LevelWarning, LevelError}
	if len(got) != len(want) {
		t.Fatalf("expected %d alerts, got %d", len(want), len(got))
	}
	for i, a := range got {
		if a.Level != want[i] {
			t.Errorf("alert %d: expected %s, got %s", i, want[i], a.Level)
		}
		if a.At.IsZero() {
			t.Errorf("alert %d: expected timestamp", i)
		}
	}

	last, ok := rec.Last()
	if !ok || last.Message != "d" {
		t.Errorf("unexpected last alert: %+v", last)
	}
}

func TestNilNotifierIsIgnored(t *testing.T) {
	Error(nil, "nobody listening")
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	Success(n, "Appointment booked")
	Error(n, "Failed to book appointment")

	want := "[ok] Appointment booked\n[error] Failed to book appointment\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: zerolog.New(&buf)}
	Warning(n, "using default slots")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "warn" || entry["message"] != "using default slots" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	var buf bytes.Buffer
	m := Multi{a, nil, b, NewWriterNotifier(&buf)}
	Info(m, "hello")

	if len(a.Alerts()) != 1 || len(b.Alerts()) != 1 {
		t.Errorf("expected each recorder to see one alert")
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected writer output, got %q", buf.String())
	}
}
