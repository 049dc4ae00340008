// Package form validates user-submitted post and comment forms before
// anything reaches the data layer.
package form

import (
	"github.com/go-playground/validator/v10"
)

// Shared validator instance; validator.New is expensive and the instance
// caches struct metadata.
var validate = validator.New()

// Errors maps a form field to its validation message. An empty map means
// the form is valid; handlers re-render the form with these messages.
type Errors map[string]string

// RequiredMessage is the one blank-field message, shared with the
// handlers so the re-rendered form reads the same no matter which layer
// caught the empty text.
const RequiredMessage = "This field is required."

// PostForm carries the user-editable fields of a post. GroupID is the
// optional group choice; the image file travels outside the form.
type PostForm struct {
	Text    string `json:"text" validate:"required"`
	GroupID *int64 `json:"group_id"`
}

// Validate checks the post form. The text check rejects the empty string
// only; whitespace-only text is accepted.
func (f PostForm) Validate() Errors {
	errs := Errors{}
	if err := validate.Struct(f); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			if fieldErr.Field() == "Text" {
				errs["text"] = RequiredMessage
			}
		}
	}
	return errs
}

// CommentForm carries the single text field of a comment.
type CommentForm struct {
	Text string `json:"text" validate:"required"`
}

// Validate checks the comment form with the same empty-string-only rule
// as PostForm.
func (f CommentForm) Validate() Errors {
	errs := Errors{}
	if err := validate.Struct(f); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			if fieldErr.Field() == "Text" {
				errs["text"] = RequiredMessage
			}
		}
	}
	return errs
}
