package dto

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	m.Run()
}

func TestStripCPF(t *testing.T) {
	assert.Equal(t, "12345678901", StripCPF("123.456.789-01"))
	assert.Equal(t, "12345678901", StripCPF("12345678901"))
	assert.Equal(t, "", StripCPF("abc"))
}

func TestCPFValidation(t *testing.T) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type payload struct {
		CPF string `binding:"omitempty,cpf"`
	}

	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{"bare digits", "12345678901", true},
		{"formatted", "123.456.789-01", true},
		{"empty is allowed", "", true},
		{"too short", "1234567890", false},
		{"too long", "123456789012", false},
		{"letters", "1234567890a", false},
		{"all same digit", "11111111111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(payload{CPF: tt.cpf})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
