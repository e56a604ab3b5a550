package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// windowQuery is the date range accepted by heatmap endpoints.
type windowQuery struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// parseWindow reads start/end from the query string. Missing ends stay zero
// so the caller can clamp them to the observed range.
func parseWindow(c *fiber.Ctx) (domain.TimeWindow, error) {
	var q windowQuery
	if err := c.QueryParser(&q); err != nil {
		return domain.TimeWindow{}, fmt.Errorf("invalid query: %w", err)
	}
	if err := validate.Struct(q); err != nil {
		return domain.TimeWindow{}, validationError(err)
	}

	return domain.ParseWindow(q.Start, q.End)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
