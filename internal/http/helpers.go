package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/lending"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// OutcomeResponse is the JSON answer to an issue or return request.
type OutcomeResponse struct {
	Outcome lending.Outcome `json:"outcome"`
	Message string          `json:"message"`
	Data    any             `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondCatalogError maps catalog errors to 400 or 409 and everything else to 500.
func respondCatalogError(c *gin.Context, err error, context string) {
	var validation *catalog.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "invalid_input",
			Details: validation.Fields,
		})
	case errors.Is(err, catalog.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "duplicate_email"})
	case errors.Is(err, catalog.ErrDuplicateCode):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "duplicate_code"})
	default:
		respondInternalError(c, err, context)
	}
}

// respondOutcome sends a lending result: 200 or 201 on success, 404 when a
// referenced record is missing and 409 for any other rejection.
func respondOutcome(c *gin.Context, successStatus int, result *lending.Result) {
	status := successStatus
	switch {
	case result.Succeeded():
	case result.Outcome.NotFound():
		status = http.StatusNotFound
	default:
		status = http.StatusConflict
	}

	resp := OutcomeResponse{
		Outcome: result.Outcome,
		Message: result.Outcome.Message(),
	}
	if result.Issue != nil {
		resp.Data = result.Issue
	}
	c.JSON(status, resp)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := parseID(c.Param(paramName))
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseID parses a positive database ID.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return uint(id), nil
}

// pagination reads page and limit query parameters, clamping limit to 1..100.
func pagination(c *gin.Context, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	pages := (int(total) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}
