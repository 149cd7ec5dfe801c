package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scriptd/scriptd/pkg/api/response"
	"github.com/scriptd/scriptd/pkg/script"
)

// ThreadHandler exposes the script-thread registry: state snapshots plus
// remote start/stop requests, which are posted as interrupts and acted upon
// inside each thread's own pump.
type ThreadHandler struct {
	registry *script.Registry
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(registry *script.Registry) *ThreadHandler {
	return &ThreadHandler{registry: registry}
}

// List handles GET /api/v1/threads.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"threads": h.registry.List(),
	})
}

// Get handles GET /api/v1/threads/{name}.
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.registry.Get(chi.URLParam(r, "name"))
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "thread not found")
		return
	}
	response.JSON(w, http.StatusOK, t.Status())
}

// Start handles POST /api/v1/threads/{name}/start.
func (h *ThreadHandler) Start(w http.ResponseWriter, r *http.Request) {
	t, ok := h.registry.Get(chi.URLParam(r, "name"))
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "thread not found")
		return
	}
	t.StartExecution()
	response.JSON(w, http.StatusAccepted, map[string]string{"status": "start requested"})
}

// Stop handles POST /api/v1/threads/{name}/stop.
func (h *ThreadHandler) Stop(w http.ResponseWriter, r *http.Request) {
	t, ok := h.registry.Get(chi.URLParam(r, "name"))
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "thread not found")
		return
	}
	t.StopExecution()
	response.JSON(w, http.StatusAccepted, map[string]string{"status": "stop requested"})
}
