package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"librarium/internal/clock"
	"librarium/internal/models"
	"librarium/internal/services"
)

const dateLayout = "2006-01-02"

type LibraryHandler struct {
	catalog   services.CatalogService
	directory services.DirectoryService
	ledger    services.LedgerService
	clk       clock.Clock
}

func RegisterRoutes(r *gin.Engine, catalog services.CatalogService, directory services.DirectoryService, ledger services.LedgerService, clk clock.Clock) {
	h := &LibraryHandler{catalog: catalog, directory: directory, ledger: ledger, clk: clk}

	// Catalog endpoints
	r.POST("/books", h.addBook)
	r.GET("/books", h.listBooks)
	r.GET("/books/available", h.listAvailable)
	r.GET("/books/recent", h.listRecentlyPublished)
	r.GET("/books/author/:author", h.findByAuthor)
	r.GET("/books/:isbn", h.findByISBN)
	r.PUT("/books/:isbn/status", h.setBookStatus)
	r.DELETE("/books/:isbn", h.removeBook)

	// Directory endpoints
	r.POST("/users", h.registerUser)
	r.GET("/users/:id", h.findUser)
	r.PUT("/users/:id", h.updateUser)
	r.DELETE("/users/:id", h.deleteUser)
	r.GET("/users/:id/loans", h.listUserLoans)
	r.GET("/users/:id/loans/open", h.listUserOpenLoans)

	// Ledger endpoints
	r.POST("/loans", h.borrowBook)
	r.POST("/loans/:id/return", h.returnLoan)
	r.POST("/loans/:id/extend", h.extendLoan)
	r.GET("/loans", h.listLoans)
	r.GET("/loans/overdue", h.listOverdueLoans)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrLoanNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateISBN),
		errors.Is(err, services.ErrBookNotAvailable),
		errors.Is(err, services.ErrLoanLimitExceeded),
		errors.Is(err, services.ErrLoanAlreadyReturned),
		errors.Is(err, services.ErrLoanOverdue):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

type addBookRequest struct {
	ISBN        string `json:"isbn" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	PublishedAt string `json:"published_at" binding:"required"`
}

func (h *LibraryHandler) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	publishedAt, err := time.Parse(dateLayout, req.PublishedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "published_at must be a YYYY-MM-DD date"})
		return
	}

	book, err := h.catalog.AddBook(req.ISBN, req.Title, req.Author, publishedAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *LibraryHandler) listBooks(c *gin.Context) {
	books, err := h.catalog.ListBooks()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) listAvailable(c *gin.Context) {
	books, err := h.catalog.ListAvailable()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) listRecentlyPublished(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be an integer"})
		return
	}
	books, err := h.catalog.FindRecentlyPublished(months)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) findByAuthor(c *gin.Context) {
	books, err := h.catalog.FindByAuthor(c.Param("author"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *LibraryHandler) findByISBN(c *gin.Context) {
	book, err := h.catalog.FindByISBN(c.Param("isbn"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

type setStatusRequest struct {
	Status models.BookStatus `json:"status" binding:"required"`
}

func (h *LibraryHandler) setBookStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	book, err := h.catalog.SetStatus(c.Param("isbn"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *LibraryHandler) removeBook(c *gin.Context) {
	if err := h.catalog.RemoveBook(c.Param("isbn")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─── Directory ────────────────────────────────────────────────────────────────

type userRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

func (h *LibraryHandler) registerUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.directory.Register(req.Name, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *LibraryHandler) findUser(c *gin.Context) {
	// Lookup by email or membership number via query params, id otherwise.
	if email := c.Query("email"); email != "" {
		h.respondUser(c, func() (*models.LibraryUser, error) { return h.directory.FindByEmail(email) })
		return
	}
	if number := c.Query("membership_number"); number != "" {
		h.respondUser(c, func() (*models.LibraryUser, error) { return h.directory.FindByMembershipNumber(number) })
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.respondUser(c, func() (*models.LibraryUser, error) { return h.directory.FindByID(id) })
}

func (h *LibraryHandler) respondUser(c *gin.Context, find func() (*models.LibraryUser, error)) {
	user, err := find()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *LibraryHandler) updateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.directory.UpdateUser(id, req.Name, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *LibraryHandler) deleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.directory.DeleteUser(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LibraryHandler) listUserLoans(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	loans, err := h.ledger.LoansByUser(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) listUserOpenLoans(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	loans, err := h.ledger.OpenLoansByUser(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

// ─── Ledger ───────────────────────────────────────────────────────────────────

type borrowRequest struct {
	ISBN   string `json:"isbn" binding:"required"`
	UserID string `json:"user_id" binding:"required,uuid"`
}

func (h *LibraryHandler) borrowBook(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	loan, err := h.ledger.Borrow(req.ISBN, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

func (h *LibraryHandler) returnLoan(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	loan, err := h.ledger.Return(loanID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

type extendRequest struct {
	ExtraDays int `json:"extra_days" binding:"required"`
}

func (h *LibraryHandler) extendLoan(c *gin.Context) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loan, err := h.ledger.Extend(loanID, req.ExtraDays)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *LibraryHandler) listLoans(c *gin.Context) {
	loans, err := h.ledger.AllLoans()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *LibraryHandler) listOverdueLoans(c *gin.Context) {
	asOf := h.clk.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a YYYY-MM-DD date"})
			return
		}
		asOf = parsed
	}
	loans, err := h.ledger.OverdueLoans(asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}
