package export

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for PDF report exports
type Handler struct {
	service *Service
}

// NewHandler creates a new export handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for export endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/groups/{groupId}", h.ExportGroup)
	r.Get("/individual", h.ExportIndividual)
	r.Get("/friends/{friendId}", h.ExportFriend)
	r.Get("/download/{token}", h.Download)

	return r
}

// ReportResponse describes a prepared report waiting for download
type ReportResponse struct {
	Token       string    `json:"token"`
	FileName    string    `json:"file_name"`
	SizeBytes   int       `json:"size_bytes"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toReportResponse(rep *Report) *ReportResponse {
	return &ReportResponse{
		Token:       rep.Token,
		FileName:    rep.FileName,
		SizeBytes:   rep.Size,
		DownloadURL: "/api/v1/export/download/" + rep.Token,
		ExpiresAt:   rep.ExpiresAt,
	}
}

// ExportGroup handles GET /export/groups/{groupId}
// @Summary      Generate a PDF report for a group
// @Description  Builds the report and returns a one-time download token.
// @Tags         export
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /export/groups/{groupId} [get]
func (h *Handler) ExportGroup(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.service.ExportGroupReport(r.Context(), groupID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toReportResponse(report))
}

// ExportIndividual handles GET /export/individual
// @Summary      Generate a PDF report of the caller's personal expenses
// @Tags         export
// @Produce      json
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Router       /export/individual [get]
func (h *Handler) ExportIndividual(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	report, err := h.service.ExportIndividualReport(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toReportResponse(report))
}

// ExportFriend handles GET /export/friends/{friendId}
// @Summary      Generate a PDF report of expenses shared with a friend
// @Tags         export
// @Produce      json
// @Param        friendId path int true "Friend user ID"
// @Success      200 {object} response.APIResponse{data=ReportResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /export/friends/{friendId} [get]
func (h *Handler) ExportFriend(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.service.ExportFriendReport(r.Context(), userID, friendID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, toReportResponse(report))
}

// Download handles GET /export/download/{token}
// @Summary      Download a prepared PDF report
// @Description  Streams the PDF for a valid token. Tokens are single-use and owner-bound.
// @Tags         export
// @Produce      application/pdf
// @Param        token path string true "Download token"
// @Param        download query bool false "Force attachment disposition"
// @Success      200 {file} binary
// @Failure      404 {object} response.APIResponse
// @Router       /export/download/{token} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	token := chi.URLParam(r, "token")
	dl, err := h.service.Download(token, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "true" {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, dl.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Data)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, "Group not found")
	case errors.Is(err, ErrFriendNotFound):
		response.NotFound(w, "No shared expenses with this user")
	case errors.Is(err, ErrTokenNotFound):
		response.NotFound(w, "Download token is invalid or has expired")
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, "You do not have access to this report")
	default:
		response.InternalError(w, "Failed to generate report")
	}
}
