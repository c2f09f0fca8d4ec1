package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for balance queries
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/friends", h.Friends)
	r.Get("/groups", h.Groups)
	r.Get("/summary", h.Summary)

	return r
}

// Friends handles GET /balances/friends
// @Summary      Get pairwise balances against each friend
// @Description  Net balances over individual expenses. Filter: all, outstanding, you_owe, owes_you, settled.
// @Tags         balances
// @Produce      json
// @Param        filter query string false "Balance filter"
// @Success      200 {object} response.APIResponse{data=[]FriendBalance}
// @Router       /balances/friends [get]
func (h *Handler) Friends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balances, err := h.service.FriendBalances(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		response.InternalError(w, "Failed to calculate friend balances")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// Groups handles GET /balances/groups
// @Summary      Get the caller's balance in each of their groups
// @Tags         balances
// @Produce      json
// @Param        filter query string false "Balance filter"
// @Success      200 {object} response.APIResponse{data=[]GroupBalance}
// @Router       /balances/groups [get]
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balances, err := h.service.GroupBalances(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		response.InternalError(w, "Failed to calculate group balances")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// Summary handles GET /balances/summary
// @Summary      Get the caller's overall balance summary
// @Tags         balances
// @Produce      json
// @Success      200 {object} response.APIResponse{data=Summary}
// @Router       /balances/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	summary, err := h.service.OverallSummary(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to calculate balance summary")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}
