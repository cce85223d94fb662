package recommendation

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/recommender/pkg/models"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getStructValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("name"); name != "" {
				return name
			}
			return f.Name
		})
	})
	return structValidator
}

// Validate checks a request against the catalogs and the count ceiling.
// Checks run in a fixed order (type, age, genre, count) and the first failure is
// returned as an *InputError.
func Validate(req models.RecommendationRequest) error {
	missing := map[string]bool{}
	if err := getStructValidator().Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			missing[fe.Field()] = true
		}
	}

	checks := []struct {
		field   string
		value   string
		catalog []string
	}{
		{"tipo", req.ContentType, models.ContentTypes},
		{"edad", req.AgeBracket, models.AgeBrackets},
		{"genero", req.Genre, models.Genres},
	}
	for _, c := range checks {
		if missing[c.field] {
			return newRequiredError(c.field)
		}
		if !inCatalog(c.value, c.catalog) {
			return newEnumError(c.field, c.value, c.catalog)
		}
	}

	if req.Count > models.MaxCount {
		return newCountError(req.Count, models.MaxCount)
	}
	return nil
}

func inCatalog(value string, catalog []string) bool {
	return slices.Contains(catalog, strings.ToLower(value))
}
