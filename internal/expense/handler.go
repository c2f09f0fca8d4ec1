package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/internal/expense/split"
	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	r.Get("/{id}/participants", h.GetParticipants)
	r.Put("/{id}/participants/{userId}/settlement", h.UpdateSettlement)

	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense, allocate shares by the requested strategy and persist everything atomically
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.CreateExpense(r.Context(), callerID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, toResponse(result))
}

// List handles GET /expenses
// @Summary      List the caller's expenses
// @Tags         expenses
// @Produce      json
// @Param        individual query bool false "Only individual (non-group) expenses"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /expenses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	individualOnly := r.URL.Query().Get("individual") == "true"

	expenses, total, err := h.service.ListByUserID(r.Context(), callerID, individualOnly, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list expenses")
		return
	}

	responses := make([]*ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, e.ToResponse())
	}

	response.JSONWithMeta(w, http.StatusOK, responses, response.PaginationMeta(page, perPage, total))
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its participants. Payer, creator, participants and group members only.
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	result, err := h.service.GetByID(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, toResponse(result))
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense and its participants. Creator only, or a group admin for group expenses.
// @Tags         expenses
// @Param        id path int true "Expense ID"
// @Success      204 "No Content"
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id, callerID); err != nil {
		h.writeError(w, err, "Failed to delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetParticipants handles GET /expenses/{id}/participants
// @Summary      List an expense's participants
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=[]ParticipantResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/{id}/participants [get]
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	participants, err := h.service.GetParticipants(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get participants")
		return
	}

	responses := make([]*ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		responses = append(responses, p.ToResponse())
	}

	response.JSON(w, http.StatusOK, responses)
}

// UpdateSettlement handles PUT /expenses/{id}/participants/{userId}/settlement
// @Summary      Mark a participant's share settled or unsettled
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        userId path int true "Participant user ID"
// @Param        request body UpdateSettlementRequest true "Settlement update"
// @Success      200 {object} response.APIResponse{data=ParticipantResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id}/participants/{userId}/settlement [put]
func (h *Handler) UpdateSettlement(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req UpdateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	participant, err := h.service.UpdateParticipantSettlement(r.Context(), id, userID, req.Settled, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to update settlement")
		return
	}

	response.JSON(w, http.StatusOK, participant.ToResponse())
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List a group's expenses
// @Description  List a group's direct expenses. With include_related, individual expenses between the group's members are listed too.
// @Tags         expenses
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        include_related query bool false "Include individual expenses between members"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	includeRelated := r.URL.Query().Get("include_related") == "true"

	expenses, total, err := h.service.ListByGroupID(r.Context(), groupID, callerID, includeRelated, page, perPage)
	if err != nil {
		h.writeError(w, err, "Failed to list group expenses")
		return
	}

	responses := make([]*ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, e.ToResponse())
	}

	response.JSONWithMeta(w, http.StatusOK, responses, response.PaginationMeta(page, perPage, total))
}

func toResponse(result *ExpenseWithParticipants) *ExpenseResponse {
	resp := result.Expense.ToResponse()
	for _, p := range result.Participants {
		resp.Participants = append(resp.Participants, p.ToResponse())
	}
	return resp
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrExpenseNotFound), errors.Is(err, ErrParticipantNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotGroupMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrEmptyDescription), isValidationError(err):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// isValidationError reports whether the error came from split validation
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		split.ErrUnknownType,
		split.ErrNonPositiveTotal,
		split.ErrNoParticipants,
		split.ErrDuplicateParticipant,
		split.ErrMissingValue,
		split.ErrPercentageOutOfRange,
		split.ErrPercentageTotal,
		split.ErrNegativeExactAmount,
		split.ErrExactTotalMismatch,
		split.ErrInvalidShares,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
