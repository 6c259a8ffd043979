package validate

import (
	"errors"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "ada@example.com", false},
		{"surrounding spaces", "  ada@example.com ", false},
		{"empty string", "", true},
		{"only spaces", "   ", true},
		{"missing at", "ada.example.com", true},
		{"missing local part", "@example.com", true},
		{"missing domain", "ada@", true},
		{"two ats", "ada@@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Email(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("hunter2"))
	assert.NoError(t, Password(" "), "whitespace is a legal password")
	assert.Error(t, Password(""))
}

func TestCredentials(t *testing.T) {
	require.NoError(t, Credentials("ada@example.com", "secret"))

	err := Credentials("nope", "")
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Len(t, fieldErrs, 2)
}
