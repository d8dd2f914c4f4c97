package services

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haulboard/haulboard/internal/authz"
	"github.com/haulboard/haulboard/internal/clients"
	"github.com/haulboard/haulboard/internal/shared"
	"github.com/haulboard/haulboard/internal/suppliers"
	"github.com/haulboard/haulboard/internal/view"
)

type Handler struct {
	logger      *slog.Logger
	service     *Service
	clientDir   *clients.Service
	supplierDir *suppliers.Service
	templates   *view.Engine
	csrf        *shared.CSRFManager
	registry    *authz.Registry
	gate        *authz.Gate
}

func NewHandler(logger *slog.Logger, service *Service, clientDir *clients.Service, supplierDir *suppliers.Service, templates *view.Engine, csrf *shared.CSRFManager, registry *authz.Registry, gate *authz.Gate) *Handler {
	return &Handler{logger: logger, service: service, clientDir: clientDir, supplierDir: supplierDir, templates: templates, csrf: csrf, registry: registry, gate: gate}
}

// transition describes a status action rendered on the detail page.
type transition struct {
	Path   string
	Label  string
	Target Status
	Action authz.Action
}

var transitions = []transition{
	{Path: "approve", Label: "Confirm", Target: StatusConfirmed, Action: authz.ActionApprove},
	{Path: "dispatch", Label: "Dispatch", Target: StatusInTransit, Action: authz.ActionEdit},
	{Path: "complete", Label: "Mark completed", Target: StatusCompleted, Action: authz.ActionMarkCompleted},
	{Path: "cancel", Label: "Cancel", Target: StatusCancelled, Action: authz.ActionEdit},
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		ListFilters: shared.FiltersFromQuery(r),
		Status:      Status(r.URL.Query().Get("status")),
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list services failed", "error", err)
		http.Error(w, "Failed to load services", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/services/list.html", map[string]any{
		"Services":      list,
		"Filters":       filters,
		"Status":        filters.Status,
		"StatusOptions": Statuses(),
		"Total":         total,
		"Errors":        map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	svc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get service failed", "error", err, "id", id)
		}
		http.Error(w, "Service not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/services/detail.html", map[string]any{
		"Service":     svc,
		"Transitions": h.availableTransitions(r, svc.Status),
	}, http.StatusOK)
}

func (h *Handler) availableTransitions(r *http.Request, current Status) []transition {
	identity := authz.IdentityFromContext(r.Context())
	if identity == nil {
		return nil
	}
	var out []transition
	for _, t := range transitions {
		if !current.CanTransition(t.Target) {
			continue
		}
		if !h.registry.HasPermission(identity.Role, authz.ResourceServices, t.Action) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, nil, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	svc := serviceFromForm(r)

	created, err := h.service.Create(r.Context(), actorID(r), svc)
	if err != nil {
		h.renderForm(w, r, &svc, map[string]string{"general": err.Error()}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/services/"+strconv.FormatInt(created.ID, 10), "success", "Service created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	svc, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Service not found", http.StatusNotFound)
		return
	}

	h.renderForm(w, r, &svc, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	svc := serviceFromForm(r)
	svc.ID = id

	if err := h.service.Update(r.Context(), actorID(r), id, svc); err != nil {
		h.renderForm(w, r, &svc, map[string]string{"general": err.Error()}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/services/"+strconv.FormatInt(id, 10), "success", "Service updated successfully")
}

// Transit handles the POSTed lifecycle actions from the detail page.
func (h *Handler) Transit(target Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid service ID", http.StatusBadRequest)
			return
		}

		if err := h.service.Transition(r.Context(), actorID(r), id, target); err != nil {
			kind := "error"
			msg := "Could not update service status"
			if errors.Is(err, ErrInvalidTransition) {
				msg = "That status change is no longer possible"
			} else if !errors.Is(err, shared.ErrNotFound) {
				h.logger.Error("service transition failed", "error", err, "id", id, "target", target)
			}
			h.redirectWithFlash(w, r, "/services/"+strconv.FormatInt(id, 10), kind, msg)
			return
		}

		h.redirectWithFlash(w, r, "/services/"+strconv.FormatInt(id, 10), "success", "Service is now "+string(target))
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid service ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		h.redirectWithFlash(w, r, "/services", "error", "Only draft services can be deleted")
		return
	}

	h.redirectWithFlash(w, r, "/services", "success", "Service deleted successfully")
}

func serviceFromForm(r *http.Request) TransportService {
	clientID, _ := strconv.ParseInt(r.PostFormValue("client_id"), 10, 64)
	supplierID, _ := strconv.ParseInt(r.PostFormValue("supplier_id"), 10, 64)
	price, _ := strconv.ParseFloat(r.PostFormValue("price"), 64)
	scheduled, err := time.Parse("2006-01-02", r.PostFormValue("scheduled_at"))
	if err != nil {
		scheduled = time.Now()
	}
	return TransportService{
		ClientID:    clientID,
		SupplierID:  supplierID,
		Origin:      r.PostFormValue("origin"),
		Destination: r.PostFormValue("destination"),
		Vehicle:     r.PostFormValue("vehicle"),
		Driver:      r.PostFormValue("driver"),
		Price:       price,
		ScheduledAt: scheduled,
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, svc *TransportService, errs map[string]string, status int) {
	clientList, _, err := h.clientDir.List(r.Context(), shared.ListFilters{SortBy: "name"})
	if err != nil {
		h.logger.Error("load clients for form", "error", err)
	}
	supplierList, _, err := h.supplierDir.List(r.Context(), shared.ListFilters{SortBy: "name"})
	if err != nil {
		h.logger.Error("load suppliers for form", "error", err)
	}
	scheduledDate := ""
	if svc != nil && !svc.ScheduledAt.IsZero() {
		scheduledDate = svc.ScheduledAt.Format("2006-01-02")
	}
	h.render(w, r, "pages/services/form.html", map[string]any{
		"Errors":        errs,
		"Service":       svc,
		"Clients":       clientList,
		"Suppliers":     supplierList,
		"ScheduledDate": scheduledDate,
	}, status)
}

func actorID(r *http.Request) int64 {
	if identity := authz.IdentityFromContext(r.Context()); identity != nil {
		return identity.ID
	}
	return 0
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
		Title:       "Transport services",
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
