package dto

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom rules on gin's binding engine.
// Call once at startup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("cpf", validateCPF)
	}
}

// validateCPF accepts a Brazilian CPF with or without punctuation:
// exactly 11 digits once stripped, and not all the same digit.
func validateCPF(fl validator.FieldLevel) bool {
	digits := StripCPF(fl.Field().String())
	if len(digits) != 11 {
		return false
	}
	first := digits[0]
	for i := 1; i < len(digits); i++ {
		if digits[i] != first {
			return true
		}
	}
	return false
}

// StripCPF removes the usual CPF punctuation, keeping digits only.
func StripCPF(cpf string) string {
	var b strings.Builder
	b.Grow(len(cpf))
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
