package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/auth"
	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/entities"
	"github.com/mrlokans/lendingdesk/internal/lending"
)

// UIController serves the librarian's pages. Every form posts back here and
// is answered with a redirect to the index carrying a flash message.
type UIController struct {
	catalog Catalog
	lending Lending
	flash   Flasher
}

// NewUIController creates the page controller. flash may be nil, in which
// case outcomes are not shown after the redirect.
func NewUIController(catalog Catalog, lending Lending, flash Flasher) *UIController {
	return &UIController{
		catalog: catalog,
		lending: lending,
		flash:   flash,
	}
}

// Index renders the catalog, the members and every open loan.
func (controller *UIController) Index(c *gin.Context) {
	ctx := c.Request.Context()

	books, err := controller.catalog.ListBooks(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books: %s", err.Error())
		return
	}
	members, err := controller.catalog.ListMembers(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading members: %s", err.Error())
		return
	}
	loans, err := controller.lending.OpenLoans(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading issues: %s", err.Error())
		return
	}

	controller.render(c, http.StatusOK, "index", gin.H{
		"Title":      "Lending desk",
		"Books":      books,
		"Members":    members,
		"Loans":      loans,
		"Categories": entities.MembershipCategories,
	})
}

// Search renders books whose title matches q.
func (controller *UIController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	books, err := controller.catalog.SearchBooks(c.Request.Context(), query)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error searching books")
		return
	}

	controller.render(c, http.StatusOK, "search", gin.H{
		"Title": "Search",
		"Query": query,
		"Books": books,
	})
}

// AddBook handles the add-book form.
func (controller *UIController) AddBook(c *gin.Context) {
	input := catalog.BookInput{
		Title:    c.PostForm("title"),
		Author:   c.PostForm("author"),
		Code:     c.PostForm("code"),
		Category: c.PostForm("category"),
	}

	if raw := strings.TrimSpace(c.PostForm("quantity")); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			controller.redirectWithError(c, &catalog.ValidationError{
				Fields: map[string]string{"quantity": "must be a whole number"},
			})
			return
		}
		input.Quantity = &quantity
	}

	book, err := controller.catalog.AddBook(c.Request.Context(), input)
	if err != nil {
		controller.redirectWithError(c, err)
		return
	}

	controller.redirect(c, auth.FlashSuccess, fmt.Sprintf("Added %q (%d copies).", book.Title, book.Quantity))
}

// AddMember handles the registration form.
func (controller *UIController) AddMember(c *gin.Context) {
	input := catalog.MemberInput{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Phone:    c.PostForm("phone"),
		Category: c.PostForm("category"),
	}

	member, err := controller.catalog.AddMember(c.Request.Context(), input)
	if err != nil {
		controller.redirectWithError(c, err)
		return
	}

	controller.redirect(c, auth.FlashSuccess, fmt.Sprintf("Registered %s.", member.Name))
}

// IssueBook handles the issue form.
func (controller *UIController) IssueBook(c *gin.Context) {
	bookID, bookErr := parseID(c.PostForm("book_id"))
	memberID, memberErr := parseID(c.PostForm("member_id"))
	if bookErr != nil || memberErr != nil {
		controller.redirect(c, auth.FlashError, "Choose a book and a member.")
		return
	}

	result, err := controller.lending.IssueBook(c.Request.Context(), bookID, memberID)
	if err != nil {
		controller.redirectWithError(c, err)
		return
	}

	if !result.Succeeded() {
		controller.redirect(c, auth.FlashError, result.Outcome.Message())
		return
	}

	issue := result.Issue
	controller.redirect(c, auth.FlashSuccess, fmt.Sprintf("Issued %q to %s. Due %s.",
		issue.Book.Title, issue.Member.Name, issue.DueDate.Format(dateLayout)))
}

// ConfirmReturn serves the GET alias used in plain links. It only renders a
// form that posts to ReturnBook, so following a link never changes stock.
func (controller *UIController) ConfirmReturn(c *gin.Context) {
	issueID, err := parseID(c.Param("id"))
	if err != nil {
		controller.redirect(c, auth.FlashError, lending.OutcomeIssueNotFound.Message())
		return
	}
	controller.render(c, http.StatusOK, "return", gin.H{
		"Title":   "Return",
		"IssueID": issueID,
	})
}

// ReturnBook closes an issue.
func (controller *UIController) ReturnBook(c *gin.Context) {
	issueID, err := parseID(c.Param("id"))
	if err != nil {
		controller.redirect(c, auth.FlashError, lending.OutcomeIssueNotFound.Message())
		return
	}

	result, err := controller.lending.ReturnBook(c.Request.Context(), issueID)
	if err != nil {
		controller.redirectWithError(c, err)
		return
	}

	if !result.Succeeded() {
		controller.redirect(c, auth.FlashError, result.Outcome.Message())
		return
	}

	message := result.Outcome.Message()
	if fine := result.Issue.Fine; fine > 0 {
		message = fmt.Sprintf("%s Fine due: %d.", message, fine)
	}
	controller.redirect(c, auth.FlashSuccess, message)
}

func (controller *UIController) redirectWithError(c *gin.Context, err error) {
	var validation *catalog.ValidationError
	switch {
	case errors.As(err, &validation):
		controller.redirect(c, auth.FlashError, "Please fix the form: "+strings.TrimPrefix(validation.Error(), "invalid input: "))
	case errors.Is(err, catalog.ErrDuplicateEmail), errors.Is(err, catalog.ErrDuplicateCode):
		controller.redirect(c, auth.FlashError, capitalize(err.Error())+".")
	default:
		respondInternalError(c, err, c.FullPath())
	}
}

func (controller *UIController) redirect(c *gin.Context, kind, message string) {
	if controller.flash != nil {
		controller.flash.PutFlash(c.Request, kind, message)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// render adds the auth and flash data every page layout uses.
func (controller *UIController) render(c *gin.Context, status int, name string, data gin.H) {
	renderPage(c, controller.flash, status, name, data)
}

func renderPage(c *gin.Context, flash Flasher, status int, name string, data gin.H) {
	data["Auth"] = GetAuthTemplateData(c)
	if flash != nil {
		if f, ok := flash.PopFlash(c.Request); ok {
			data["Flash"] = f
		}
	}
	c.HTML(status, name, data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
