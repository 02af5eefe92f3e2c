package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/integrations/internal/server/response"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/manager"
)

// LoadRequest is the body of POST /store/{name}. DataSource accepts the
// nested object or the legacy "type-dataset-namespace" string.
type LoadRequest struct {
	Name       string                  `json:"name"`
	DataSource integrations.DataSource `json:"dataSource"`
	Workflows  []string                `json:"workflows,omitempty"`
	Tags       []string                `json:"tags,omitempty"`
}

// HandleLoadInstance handles POST /store/{name}: it installs the assets of
// template {name} and records the instance.
func (h *Handlers) HandleLoadInstance(w http.ResponseWriter, r *http.Request) {
	templateName := chi.URLParam(r, "name")

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	ctx := logging.WithIntegration(r.Context(), templateName)
	instance, err := h.manager.LoadIntegrationInstance(ctx, templateName, manager.LoadOptions{
		Name:       req.Name,
		DataSource: req.DataSource,
		Workflows:  req.Workflows,
		Tags:       req.Tags,
	})
	// Assets may exist even when the load failed.
	h.invalidate("write")
	if h.observe("load_instance", err) != nil {
		response.Err(w, err)
		return
	}
	response.Created(w, instance)
}

// HandleListInstances handles GET /store/list_added.
func (h *Handlers) HandleListInstances(w http.ResponseWriter, r *http.Request) {
	list, err := h.manager.GetIntegrationInstances(r.Context())
	if h.observe("list_instances", err) != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, list)
}

// HandleGetInstance handles GET /store/{id}. Asset statuses are probed on
// every request.
func (h *Handlers) HandleGetInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, err := h.manager.GetIntegrationInstance(logging.WithInstance(r.Context(), id), id)
	if h.observe("get_instance", err) != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, instance)
}

// HandleDeleteInstance handles DELETE /store/{id}.
func (h *Handlers) HandleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.manager.DeleteIntegrationInstance(logging.WithInstance(r.Context(), id), id)
	if h.observe("delete_instance", err) != nil {
		response.Err(w, err)
		return
	}
	h.invalidate("write")
	response.OK(w, map[string]any{"deleted": deleted})
}
