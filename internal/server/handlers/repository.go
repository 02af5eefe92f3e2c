package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentstation/integrations/internal/server/response"
	"github.com/agentstation/integrations/pkg/constants"
	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/integrations"
	"github.com/agentstation/integrations/pkg/logging"
	"github.com/agentstation/integrations/pkg/manager"
)

// HandleListTemplates handles GET /repository, optionally narrowed to one
// integration with ?name=.
func (h *Handlers) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	list, err := h.cached("list_templates", "templates:"+name, func() (any, error) {
		return h.manager.GetIntegrationTemplates(r.Context(), name)
	})
	if err != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, list)
}

// HandleGetTemplate handles GET /repository/{name}.
func (h *Handlers) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cfg, err := h.cached("get_template", "template:"+name, func() (any, error) {
		return h.manager.GetIntegrationTemplate(logging.WithIntegration(r.Context(), name), name)
	})
	if err != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, cfg)
}

// HandleGetStatic handles GET /repository/{name}/static/*. The body is the
// raw asset with its MIME type.
func (h *Handlers) HandleGetStatic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	staticPath := chi.URLParam(r, "*")
	v, err := h.cached("get_static", "static:"+name+"/"+staticPath, func() (any, error) {
		return h.manager.GetStatic(logging.WithIntegration(r.Context(), name), name, staticPath)
	})
	if err != nil {
		response.Err(w, err)
		return
	}
	static := v.(*manager.Static)
	response.Bytes(w, static.MimeType, static.Data)
}

// HandleGetSchemas handles GET /repository/{name}/schema.
func (h *Handlers) HandleGetSchemas(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	schemas, err := h.cached("get_schemas", "schemas:"+name, func() (any, error) {
		return h.manager.GetSchemas(logging.WithIntegration(r.Context(), name), name)
	})
	if err != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, schemas)
}

// HandleGetAssets handles GET /repository/{name}/assets.
func (h *Handlers) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	assets, err := h.cached("get_assets", "assets:"+name, func() (any, error) {
		return h.manager.GetAssets(logging.WithIntegration(r.Context(), name), name)
	})
	if err != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, assets)
}

// HandleGetSampleData handles GET /repository/{name}/data. Sample
// timestamps are drawn per request, so the response is never cached.
func (h *Handlers) HandleGetSampleData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sample, err := h.manager.GetSampleData(logging.WithIntegration(r.Context(), name), name)
	if h.observe("get_sample_data", err) != nil {
		response.Err(w, err)
		return
	}
	response.OK(w, sample)
}

// HandleUploadTemplate handles POST /repository. The body is a serialized
// template; uploading the same name and version again replaces it.
func (h *Handlers) HandleUploadTemplate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.JSON(w, http.StatusRequestEntityTooLarge, response.Fail("PAYLOAD_TOO_LARGE", err.Error(), ""))
			return
		}
		response.BadRequest(w, "Failed to read request body", err.Error())
		return
	}

	cfg, err := integrations.ValidateTemplate(body).Get()
	if err != nil {
		response.Err(w, h.observe("upload_template", err))
		return
	}

	obj, err := h.manager.UploadTemplate(r.Context(), integrations.SerializedIntegration{Config: cfg})
	if h.observe("upload_template", err) != nil {
		response.Err(w, err)
		return
	}
	h.invalidate("write")
	response.Created(w, map[string]any{"id": obj.ID})
}
