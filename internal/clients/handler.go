package clients

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	registry  *authz.Registry
	gate      *authz.Gate
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, registry *authz.Registry, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, registry: registry, gate: gate}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromQuery(r)

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list clients failed", "error", err)
		http.Error(w, "Failed to load clients", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/clients/list.html", map[string]any{
		"Clients": list,
		"Filters": filters,
		"Total":   total,
		"Errors":  map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get client failed", "error", err, "id", id)
		}
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/clients/detail.html", map[string]any{
		"Client": client,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/clients/form.html", map[string]any{
		"Errors": map[string]string{},
		"Client": nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	client := clientFromForm(r)

	created, err := h.service.Create(r.Context(), client)
	if err != nil {
		h.render(w, r, "pages/clients/form.html", map[string]any{
			"Errors": map[string]string{"general": formError(err)},
			"Client": nil,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/clients/"+strconv.FormatInt(created.ID, 10), "success", "Client created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Client not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/clients/form.html", map[string]any{
		"Errors": map[string]string{},
		"Client": client,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	client := clientFromForm(r)
	client.ID = id

	if err := h.service.Update(r.Context(), id, client); err != nil {
		h.render(w, r, "pages/clients/form.html", map[string]any{
			"Errors": map[string]string{"general": formError(err)},
			"Client": client,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/clients/"+strconv.FormatInt(id, 10), "success", "Client updated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.redirectWithFlash(w, r, "/clients", "error", formError(err))
		return
	}

	h.redirectWithFlash(w, r, "/clients", "success", "Client deleted successfully")
}

func clientFromForm(r *http.Request) Client {
	return Client{
		Code:        r.PostFormValue("code"),
		Name:        r.PostFormValue("name"),
		ContactName: r.PostFormValue("contact_name"),
		Email:       r.PostFormValue("email"),
		Phone:       r.PostFormValue("phone"),
		Address:     r.PostFormValue("address"),
	}
}

func formError(err error) string {
	if errors.Is(err, shared.ErrDuplicate) {
		return "A client with this code already exists"
	}
	if errors.Is(err, shared.ErrNotFound) {
		return "Client not found"
	}
	return err.Error()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	identity := authz.IdentityFromContext(r.Context())
	viewData := view.TemplateData{
		Title:       "Clients",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    identity,
		Data:        data,
	}
	if identity != nil {
		viewData.RoleLabel = h.registry.RoleLabel(identity.Role)
		viewData.Can = func(resource, action string) bool {
			return h.registry.HasPermission(identity.Role, authz.Resource(resource), authz.Action(action))
		}
	}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", "error", err, "template", template)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
