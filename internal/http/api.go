package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/catalog"
)

// APIController exposes the catalog and lending operations as JSON.
type APIController struct {
	catalog Catalog
	lending Lending
}

func NewAPIController(catalog Catalog, lending Lending) *APIController {
	return &APIController{catalog: catalog, lending: lending}
}

// IssueRequest is the body of POST /api/issues.
type IssueRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	MemberID uint `json:"member_id" binding:"required"`
}

// ListBooks handles GET /api/books. An optional q filters by title.
func (a *APIController) ListBooks(c *gin.Context) {
	books, err := a.catalog.SearchBooks(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books)})
}

// CreateBook handles POST /api/books.
func (a *APIController) CreateBook(c *gin.Context) {
	var input catalog.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := a.catalog.AddBook(c.Request.Context(), input)
	if err != nil {
		respondCatalogError(c, err, "create book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

// ListMembers handles GET /api/members.
func (a *APIController) ListMembers(c *gin.Context) {
	members, err := a.catalog.ListMembers(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

// CreateMember handles POST /api/members.
func (a *APIController) CreateMember(c *gin.Context) {
	var input catalog.MemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	member, err := a.catalog.AddMember(c.Request.Context(), input)
	if err != nil {
		respondCatalogError(c, err, "create member")
		return
	}
	c.JSON(http.StatusCreated, member)
}

// ListOpenIssues handles GET /api/issues.
func (a *APIController) ListOpenIssues(c *gin.Context) {
	loans, err := a.lending.OpenLoans(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list issues")
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": loans, "total": len(loans)})
}

// CreateIssue handles POST /api/issues.
func (a *APIController) CreateIssue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and member_id are required")
		return
	}

	result, err := a.lending.IssueBook(c.Request.Context(), req.BookID, req.MemberID)
	if err != nil {
		respondInternalError(c, err, "issue book")
		return
	}
	respondOutcome(c, http.StatusCreated, result)
}

// ReturnIssue handles POST /api/issues/:id/return.
func (a *APIController) ReturnIssue(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := a.lending.ReturnBook(c.Request.Context(), issueID)
	if err != nil {
		respondInternalError(c, err, "return book")
		return
	}
	respondOutcome(c, http.StatusOK, result)
}
