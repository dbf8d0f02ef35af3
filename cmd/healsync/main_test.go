package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hackgods/healsync/internal/localstore"
)

func setupEnv(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := filepath.Join(t.TempDir(), "store.json")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HEALSYNC_API_URL", srv.URL)
	t.Setenv("HEALSYNC_STORE", store)
	t.Setenv("REDIRECT_DELAY", "10ms")
	return store
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBookFlow(t *testing.T) {
	var booked atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/appointments/book/available-slots", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"startTime":"09:00","endTime":"10:00","doctorId":7,"doctorName":"Dr. X"}]`)
	})
	mux.HandleFunc("/v1/appointments/book/appointment", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("patientId") != "p1" || r.URL.Query().Get("endDateTime") != "2024-08-15T10:00:00" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		booked.Store(true)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"a1","doctorId":7,"patientId":"p1","status":"SCHEDULED"}`)
	})
	storePath := setupEnv(t, mux)

	if _, err := run(t, "login", "--id", "p1", "--type", "patient"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "slots", "--specialty", "Cardiology", "--date", "2024-08-15")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if !strings.Contains(out, "Dr. X") {
		t.Errorf("expected slot listing, got %q", out)
	}

	out, err = run(t, "book", "--specialty", "Cardiology", "--date", "2024-08-15", "--slot", "1", "--reason", "checkup")
	if err != nil {
		t.Fatalf("book: %v\n%s", err, out)
	}
	if !booked.Load() {
		t.Fatal("expected booking request")
	}
	if !strings.Contains(out, "[ok] Appointment booked successfully!") || !strings.Contains(out, "-> /patient/profile") {
		t.Errorf("unexpected output %q", out)
	}

	store, err := localstore.Open(storePath)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := store.ReadCollection(localstore.KeyBookings)
	if err != nil || len(recs) != 1 {
		t.Errorf("expected one local booking, got %v %v", recs, err)
	}
}

func TestBookWithoutDoctorOnFallback(t *testing.T) {
	var bookCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/appointments/book/available-slots", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/appointments/book/appointment", func(w http.ResponseWriter, r *http.Request) {
		bookCalls.Add(1)
	})
	setupEnv(t, mux)

	if _, err := run(t, "login", "--id", "p1"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "book", "--specialty", "Cardiology", "--date", "2024-08-15", "--slot", "1", "--reason", "checkup")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported validation error, got %v", err)
	}
	if !strings.Contains(out, "doctor") {
		t.Errorf("expected doctor to be reported missing, got %q", out)
	}
	if n := bookCalls.Load(); n != 0 {
		t.Errorf("expected no booking request, got %d", n)
	}
}

func TestPatientsFromLocalCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/appointments/book/patient/appointments", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"a1","doctorId":"7","patientId":"p1","patientName":"Jane","date":"2024-08-15","startTime":"09:00","status":"SCHEDULED"}]`)
	})
	setupEnv(t, mux)

	if _, err := run(t, "login", "--id", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "appointments"); err != nil {
		t.Fatalf("appointments: %v", err)
	}

	out, err := run(t, "patients", "--doctor", "7", "--json")
	if err != nil {
		t.Fatalf("patients: %v", err)
	}
	if !strings.Contains(out, `"id": "p1"`) || !strings.Contains(out, `"patientName": "Jane"`) {
		t.Errorf("expected cached patient, got %q", out)
	}
}

func TestPatientsRequiresDoctor(t *testing.T) {
	setupEnv(t, http.NotFoundHandler())
	if _, err := run(t, "login", "--id", "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "patients"); err == nil {
		t.Error("expected an error when no doctor is given")
	}
}
