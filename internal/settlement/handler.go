package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Record)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Get("/with/{userId}", h.ListBetween)
	r.Get("/expense/{expenseId}", h.ListByExpense)

	return r
}

// Record handles POST /settlements
// @Summary      Record a payment between two users
// @Description  Append a settlement to the log. The linked participants' settled flags are not changed.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body RecordSettlementRequest true "Settlement to record"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RecordSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.Record(r.Context(), callerID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to record settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// List handles GET /settlements
// @Summary      List the caller's settlements
// @Tags         settlements
// @Produce      json
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	settlements, total, err := h.service.ListByUserID(r.Context(), callerID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(settlements), response.PaginationMeta(page, perPage, total))
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}

	settlement, err := h.service.GetByID(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// ListBetween handles GET /settlements/with/{userId}
// @Summary      List settlements between the caller and another user
// @Tags         settlements
// @Produce      json
// @Param        userId path int true "Other user ID"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements/with/{userId} [get]
func (h *Handler) ListBetween(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	otherID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	settlements, total, err := h.service.ListBetweenUsers(r.Context(), callerID, otherID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(settlements), response.PaginationMeta(page, perPage, total))
}

// ListByExpense handles GET /settlements/expense/{expenseId}
// @Summary      List settlements linked to an expense
// @Tags         settlements
// @Produce      json
// @Param        expenseId path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements/expense/{expenseId} [get]
func (h *Handler) ListByExpense(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	expenseID, err := strconv.ParseInt(chi.URLParam(r, "expenseId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	settlements, err := h.service.ListByExpenseID(r.Context(), expenseID)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	response.JSON(w, http.StatusOK, toResponses(settlements))
}

func toResponses(settlements []*Settlement) []*SettlementResponse {
	out := make([]*SettlementResponse, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, s.ToResponse())
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSettlementNotFound), errors.Is(err, ErrExpenseNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrSameUser), errors.Is(err, ErrNonPositiveAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
