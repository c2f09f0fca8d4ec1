package activity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for activity operations
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for activity endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Feed)
	r.Get("/recent", h.Recent)
	r.Get("/groups/{groupId}", h.GroupFeed)
	r.Get("/friends/{friendId}", h.FriendFeed)

	return r
}

// Feed handles GET /activities
// @Summary      Get the caller's activity feed
// @Tags         activities
// @Produce      json
// @Param        filter query string false "Filter: all, groups, expenses, payments"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]Activity}
// @Router       /activities [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, perPage, limit, offset := paginate(r)
	filter := r.URL.Query().Get("filter")

	activities, total, err := h.service.Feed(r.Context(), userID, filter, limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to get activity feed")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, activities, response.PaginationMeta(page, perPage, total))
}

// Recent handles GET /activities/recent
// @Summary      Get the newest entries in the caller's feed
// @Tags         activities
// @Produce      json
// @Param        limit query int false "Maximum entries (default 10)"
// @Success      200 {object} response.APIResponse{data=[]Activity}
// @Router       /activities/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	activities, err := h.service.Recent(r.Context(), userID, limit)
	if err != nil {
		response.InternalError(w, "Failed to get recent activities")
		return
	}

	response.JSON(w, http.StatusOK, activities)
}

// GroupFeed handles GET /activities/groups/{groupId}
// @Summary      Get a group's activity feed
// @Tags         activities
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]Activity}
// @Failure      403 {object} response.APIResponse
// @Router       /activities/groups/{groupId} [get]
func (h *Handler) GroupFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	page, perPage, limit, offset := paginate(r)

	activities, total, err := h.service.GroupFeed(r.Context(), groupID, userID, limit, offset)
	if err != nil {
		if errors.Is(err, ErrNotGroupMember) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group activities")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, activities, response.PaginationMeta(page, perPage, total))
}

// FriendFeed handles GET /activities/friends/{friendId}
// @Summary      Get activities between the caller and a friend
// @Tags         activities
// @Produce      json
// @Param        friendId path int true "Friend user ID"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]Activity}
// @Router       /activities/friends/{friendId} [get]
func (h *Handler) FriendFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	friendID, err := strconv.ParseInt(chi.URLParam(r, "friendId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid friend ID")
		return
	}

	page, perPage, limit, offset := paginate(r)

	activities, total, err := h.service.FriendFeed(r.Context(), userID, friendID, limit, offset)
	if err != nil {
		response.InternalError(w, "Failed to get friend activities")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, activities, response.PaginationMeta(page, perPage, total))
}

// paginate reads page/per_page query params and converts them to limit/offset.
func paginate(r *http.Request) (page, perPage, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage, perPage, (page - 1) * perPage
}
