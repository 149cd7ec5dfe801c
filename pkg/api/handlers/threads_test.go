package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scriptd/scriptd/pkg/script"
)

type idleScript struct {
	script.BaseHandler
	started chan struct{}
	stopped chan struct{}
}

func (s *idleScript) Run(th *script.Thread) error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	_, err := th.WaitUntil(func() bool { return false }, script.NoTimeout)
	return err
}

func (s *idleScript) Interrupt(th *script.Thread, reason script.Reason) {
	if reason == script.ReasonStopped {
		select {
		case s.stopped <- struct{}{}:
		default:
		}
	}
}

func newTestRegistry(t *testing.T) (*script.Registry, *idleScript) {
	t.Helper()
	reg := script.NewRegistry()
	h := &idleScript{
		started: make(chan struct{}, 1),
		stopped: make(chan struct{}, 1),
	}
	th := script.New("sweep", h, nil)
	if err := reg.Add(th); err != nil {
		t.Fatal(err)
	}
	if err := th.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(reg.CloseAll)
	return reg, h
}

func threadRouter(h *ThreadHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/threads", h.List)
	r.Get("/threads/{name}", h.Get)
	r.Post("/threads/{name}/start", h.Start)
	r.Post("/threads/{name}/stop", h.Stop)
	return r
}

func TestThreadHandler_List(t *testing.T) {
	reg, _ := newTestRegistry(t)
	r := threadRouter(NewThreadHandler(reg))

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %v, want %v", w.Code, http.StatusOK)
	}
	var body struct {
		Threads []script.Status `json:"threads"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Threads) != 1 || body.Threads[0].Name != "sweep" {
		t.Errorf("threads = %+v", body.Threads)
	}
}

func TestThreadHandler_Get(t *testing.T) {
	reg, _ := newTestRegistry(t)
	r := threadRouter(NewThreadHandler(reg))

	req := httptest.NewRequest(http.MethodGet, "/threads/sweep", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Get() status = %v, want %v", w.Code, http.StatusOK)
	}
	var st script.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Name != "sweep" || st.Executing {
		t.Errorf("status = %+v", st)
	}
}

func TestThreadHandler_GetNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	r := threadRouter(NewThreadHandler(reg))

	req := httptest.NewRequest(http.MethodGet, "/threads/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Get() status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestThreadHandler_StartStop(t *testing.T) {
	reg, h := newTestRegistry(t)
	r := threadRouter(NewThreadHandler(reg))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/threads/sweep/start", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("Start() status = %v, want %v", w.Code, http.StatusAccepted)
	}
	select {
	case <-h.started:
	case <-time.After(2 * time.Second):
		t.Fatal("script run never started")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/threads/sweep/stop", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("Stop() status = %v, want %v", w.Code, http.StatusAccepted)
	}
	select {
	case <-h.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("script run never stopped")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/threads/nope/start", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Start() unknown thread status = %v, want %v", w.Code, http.StatusNotFound)
	}
}
