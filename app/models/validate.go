package models

import "github.com/go-playground/validator/v10"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on an empty tag name or nil func.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	return v
}

// toggleMember adds id to members when absent and removes it when present.
// It reports whether id is a member afterwards.
func toggleMember(members []string, id string) ([]string, bool) {
	for i, m := range members {
		if m == id {
			return append(members[:i:i], members[i+1:]...), false
		}
	}
	return append(members, id), true
}

func hasMember(members []string, id string) bool {
	for _, m := range members {
		if m == id {
			return true
		}
	}
	return false
}
