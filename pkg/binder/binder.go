package binder

import (
	"context"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
)

// Binder cleans up and validates entity input before it reaches storage. It
// uses mold to trim/normalize, creasty/defaults to fill zero values and
// validator for the constraints declared in struct tags.
type Binder struct {
	conform  *mold.Transformer
	validate *validator.Validate
}

// New initializes a new Binder instance with the appropriate validation
// functions registered.
func New() *Binder {
	conform := modifiers.New()
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(date, dateValidator)
	_ = validate.RegisterValidation(year, yearValidator)
	_ = validate.RegisterValidation(isbn, isbnValidator)

	return &Binder{conform, validate}
}

// Bind modifies and validates i, which must be a pointer to a struct. A
// constraint violation is returned as an errcodes validation error naming
// the first offending field.
func (b *Binder) Bind(ctx context.Context, i interface{}) error {
	if err := b.conform.Struct(ctx, i); err != nil {
		return errors.WithStack(err)
	}

	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return errors.WithStack(err)
		}
		msg := formatValidationError(errs[0])
		return errcodes.ValidationError(msg)
	}
	return nil
}
