package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tanmaysahni/splitbook/pkg/middleware"
	"github.com/tanmaysahni/splitbook/pkg/response"
)

// Handler handles HTTP requests for personal book operations
type Handler struct {
	service *Service
}

// NewHandler creates a new book handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for book endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	r.Get("/{id}/summary", h.Summary)
	r.Get("/{id}/report", h.Report)

	r.Post("/{id}/entries", h.CreateEntry)
	r.Get("/{id}/entries", h.ListEntries)
	r.Get("/entries/{entryId}", h.GetEntry)
	r.Put("/entries/{entryId}", h.UpdateEntry)
	r.Delete("/entries/{entryId}", h.DeleteEntry)

	r.Get("/report", h.UserReport)

	return r
}

// Create handles POST /books
// @Summary      Create a personal book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        request body CreateBookRequest true "Book creation request"
// @Success      201 {object} response.APIResponse{data=Book}
// @Failure      400 {object} response.APIResponse
// @Router       /books [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	book, err := h.service.CreateBook(r.Context(), callerID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create book")
		return
	}

	response.JSON(w, http.StatusCreated, book)
}

// List handles GET /books
// @Summary      List the caller's books
// @Tags         books
// @Produce      json
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]Book}
// @Router       /books [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	books, total, err := h.service.ListBooks(r.Context(), callerID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list books")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, books, response.PaginationMeta(page, perPage, total))
}

// GetByID handles GET /books/{id}
// @Summary      Get a book by ID
// @Tags         books
// @Produce      json
// @Param        id path int true "Book ID"
// @Success      200 {object} response.APIResponse{data=Book}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	book, err := h.service.GetBook(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get book")
		return
	}

	response.JSON(w, http.StatusOK, book)
}

// Delete handles DELETE /books/{id}
// @Summary      Delete a book and all its entries
// @Tags         books
// @Param        id path int true "Book ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	if err := h.service.DeleteBook(r.Context(), id, callerID); err != nil {
		h.writeError(w, err, "Failed to delete book")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

// Summary handles GET /books/{id}/summary
// @Summary      Get income/expense totals for a book
// @Tags         books
// @Produce      json
// @Param        id path int true "Book ID"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id}/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	summary, err := h.service.BookSummary(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get book summary")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// Report handles GET /books/{id}/report
// @Summary      Get an income/expense report for a book
// @Description  Totals and balance for the book, optionally restricted to a date range
// @Tags         books
// @Produce      json
// @Param        id path int true "Book ID"
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} response.APIResponse{data=Report}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id}/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.BookReport(r.Context(), id, callerID, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to build report")
		return
	}

	response.JSON(w, http.StatusOK, report)
}

// UserReport handles GET /books/report
// @Summary      Get an income/expense report across all of the caller's books
// @Description  Overall totals include the current month's savings when no date range is given
// @Tags         books
// @Produce      json
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} response.APIResponse{data=UserReport}
// @Failure      400 {object} response.APIResponse
// @Router       /books/report [get]
func (h *Handler) UserReport(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.UserReport(r.Context(), callerID, from, to)
	if err != nil {
		h.writeError(w, err, "Failed to build report")
		return
	}

	response.JSON(w, http.StatusOK, report)
}

// CreateEntry handles POST /books/{id}/entries
// @Summary      Add an entry to a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id path int true "Book ID"
// @Param        request body CreateEntryRequest true "Entry creation request"
// @Success      201 {object} response.APIResponse{data=Entry}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id}/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), bookID, callerID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to create entry")
		return
	}

	response.JSON(w, http.StatusCreated, entry)
}

// ListEntries handles GET /books/{id}/entries
// @Summary      List entries in a book
// @Tags         books
// @Produce      json
// @Param        id path int true "Book ID"
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number"
// @Param        per_page query int false "Items per page"
// @Success      200 {object} response.APIResponse{data=[]Entry}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/{id}/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid book ID")
		return
	}

	from, to, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	entries, total, err := h.service.ListEntries(r.Context(), bookID, callerID, from, to, page, perPage)
	if err != nil {
		h.writeError(w, err, "Failed to list entries")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, response.PaginationMeta(page, perPage, total))
}

// GetEntry handles GET /books/entries/{entryId}
// @Summary      Get an entry by ID
// @Tags         books
// @Produce      json
// @Param        entryId path int true "Entry ID"
// @Success      200 {object} response.APIResponse{data=Entry}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/entries/{entryId} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid entry ID")
		return
	}

	entry, err := h.service.GetEntry(r.Context(), entryID, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to get entry")
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

// UpdateEntry handles PUT /books/entries/{entryId}
// @Summary      Update an entry
// @Description  Partial update; omitted fields keep their current value
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        entryId path int true "Entry ID"
// @Param        request body UpdateEntryRequest true "Entry update request"
// @Success      200 {object} response.APIResponse{data=Entry}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/entries/{entryId} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid entry ID")
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), entryID, callerID, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update entry")
		return
	}

	response.JSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /books/entries/{entryId}
// @Summary      Delete an entry
// @Tags         books
// @Param        entryId path int true "Entry ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /books/entries/{entryId} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid entry ID")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), entryID, callerID); err != nil {
		h.writeError(w, err, "Failed to delete entry")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Entry deleted successfully"})
}

// dateRange parses optional from/to query params as YYYY-MM-DD dates. The
// "to" bound is pushed to the end of its day so the range is inclusive.
func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var from, to *time.Time

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "Invalid from date, expected YYYY-MM-DD")
			return nil, nil, false
		}
		from = &t
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "Invalid to date, expected YYYY-MM-DD")
			return nil, nil, false
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	return from, to, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrEntryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrEmptyName), errors.Is(err, ErrInvalidEntryType),
		errors.Is(err, ErrNonPositiveAmount), errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrMissingDate):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
