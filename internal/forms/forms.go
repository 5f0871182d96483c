// Package forms declares the input constraints of every HTML form and turns
// validation failures into per-field messages for re-rendering.
package forms

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jellydator/validation"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	UsernameMinLen  = 6
	UsernameMaxLen  = 20
	PasswordMinLen  = 8
	PasswordMaxLen  = 50
	BookFieldMaxLen = 100

	// PasswordMaxBytes is the bcrypt input limit. Lengths above are in runes.
	PasswordMaxBytes = 72
)

// formErrorKey holds errors that do not belong to a single field.
const formErrorKey = "form"

// Result is the outcome of validating a form.
type Result struct {
	Errors map[string]string
}

// Valid reports whether the form passed every rule.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Field returns the message for a field, or "".
func (r Result) Field(name string) string {
	return r.Errors[name]
}

// Check runs v's rules and collects field messages keyed by the json tag name.
func Check(v validation.Validatable) Result {
	err := v.Validate()
	if err == nil {
		return Result{}
	}

	result := Result{Errors: map[string]string{}}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			result.Errors[field] = capitalize(fieldErr.Error())
		}
		return result
	}

	result.Errors[formErrorKey] = "The form could not be processed."
	return result
}

type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (f LoginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required, validation.RuneLength(UsernameMinLen, UsernameMaxLen)),
		validation.Field(&f.Password, validation.Required, validation.RuneLength(PasswordMinLen, PasswordMaxLen), passwordBytesRule),
	)
}

type RegisterForm struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (f RegisterForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required, validation.RuneLength(UsernameMinLen, UsernameMaxLen)),
		validation.Field(&f.Password, validation.Required, validation.RuneLength(PasswordMinLen, PasswordMaxLen), passwordBytesRule),
		validation.Field(&f.ConfirmPassword,
			validation.Required,
			validation.In(f.Password).Error("passwords must match"),
		),
	)
}

// BookForm carries the add-book input. Rating stays a string until validated
// so that non-numeric input becomes a field message instead of a bind error.
type BookForm struct {
	Title  string `form:"title" json:"title"`
	Author string `form:"author" json:"author"`
	Genre  string `form:"genre" json:"genre"`
	Rating string `form:"rating" json:"rating"`
}

func (f BookForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.RuneLength(1, BookFieldMaxLen)),
		validation.Field(&f.Author, validation.RuneLength(0, BookFieldMaxLen)),
		validation.Field(&f.Genre, validation.RuneLength(0, BookFieldMaxLen)),
		validation.Field(&f.Rating, validation.Required, ratingRule),
	)
}

// RatingValue returns the parsed rating; call it only on a valid form.
func (f BookForm) RatingValue() int {
	n, _ := parseRating(f.Rating)
	return n
}

type RatingForm struct {
	Rating string `form:"rating" json:"rating"`
}

func (f RatingForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Rating, validation.Required, ratingRule),
	)
}

func (f RatingForm) RatingValue() int {
	n, _ := parseRating(f.Rating)
	return n
}

var (
	errRatingNotInt = validation.NewError("validation_rating_int", "must be a whole number")
	errRatingRange  = validation.NewError("validation_rating_range", "must be between 1 and 5")
)

var errPasswordBytes = validation.NewError("validation_password_bytes", "is too long")

var passwordBytesRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) > PasswordMaxBytes {
		return errPasswordBytes
	}
	return nil
})

var ratingRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	n, err := parseRating(s)
	if err != nil {
		return errRatingNotInt
	}
	if n < entities.MinRating || n > entities.MaxRating {
		return errRatingRange
	}
	return nil
})

func parseRating(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
