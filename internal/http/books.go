package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/forms"
	"github.com/mrlokans/bookshelf/internal/services"
)

// BooksController serves the bookshelf pages of the signed-in user.
type BooksController struct {
	service *services.BookService
	logger  *zap.SugaredLogger
}

func NewBooksController(service *services.BookService, logger *zap.SugaredLogger) *BooksController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &BooksController{service: service, logger: logger}
}

// Home lists the user's books together with an empty add-book form.
// GET /home
func (bc *BooksController) Home(c *gin.Context) {
	bc.renderHome(c, http.StatusOK, forms.BookForm{}, nil)
}

// AddBook validates the add-book form and stores the book.
// POST /home
func (bc *BooksController) AddBook(c *gin.Context) {
	var form forms.BookForm
	_ = c.ShouldBind(&form)

	if result := forms.Check(form); !result.Valid() {
		bc.renderHome(c, http.StatusBadRequest, form, result.Errors)
		return
	}

	_, err := bc.service.AddBook(c.Request.Context(), auth.GetUserID(c), services.NewBook{
		Title:  form.Title,
		Author: form.Author,
		Genre:  form.Genre,
		Rating: form.RatingValue(),
	})
	if err != nil {
		respondServiceError(c, bc.logger, err, "add book")
		return
	}

	c.Redirect(http.StatusFound, "/home")
}

// DeleteBook removes one of the user's books.
// POST /delete/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.service.DeleteBook(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondServiceError(c, bc.logger, err, "delete book")
		return
	}

	c.Redirect(http.StatusFound, "/home")
}

// DeleteRedirect answers GET /delete/:id without touching the book.
func (bc *BooksController) DeleteRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, "/home")
}

// RatingPage renders the rating form for one of the user's books.
// GET /add-notes/:id
func (bc *BooksController) RatingPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.service.GetBook(c.Request.Context(), auth.GetUserID(c), id)
	if err != nil {
		respondServiceError(c, bc.logger, err, "get book")
		return
	}

	c.HTML(http.StatusOK, "add_notes.html", auth.TemplateData(c, gin.H{
		"Title": "Rate " + book.Title,
		"Book":  book,
		"Form":  forms.RatingForm{Rating: strconv.Itoa(book.Rating)},
	}))
}

// UpdateRating overwrites the rating of one of the user's books.
// POST /add-notes/:id
func (bc *BooksController) UpdateRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := auth.GetUserID(c)

	var form forms.RatingForm
	_ = c.ShouldBind(&form)

	if result := forms.Check(form); !result.Valid() {
		book, err := bc.service.GetBook(c.Request.Context(), userID, id)
		if err != nil {
			respondServiceError(c, bc.logger, err, "get book")
			return
		}
		c.HTML(http.StatusBadRequest, "add_notes.html", auth.TemplateData(c, gin.H{
			"Title":  "Rate " + book.Title,
			"Book":   book,
			"Form":   form,
			"Errors": result.Errors,
		}))
		return
	}

	if _, err := bc.service.UpdateRating(c.Request.Context(), userID, id, form.RatingValue()); err != nil {
		respondServiceError(c, bc.logger, err, "update rating")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (bc *BooksController) renderHome(c *gin.Context, status int, form forms.BookForm, errs map[string]string) {
	shelf, err := bc.service.ListBooks(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondServiceError(c, bc.logger, err, "list books")
		return
	}

	c.HTML(status, "home.html", auth.TemplateData(c, gin.H{
		"Title":  "My books",
		"Books":  shelf,
		"Form":   form,
		"Errors": errs,
	}))
}
