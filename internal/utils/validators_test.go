package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"therapist@clinic.example",
		"first.last@sub.domain.org",
		"p+tag@host.co",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"noat.example",
		"no-domain@",
		"@no-local.example",
		"dotless@domain",
		"spaces in@local.example",
		"two@@signs.example",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestIsComplexPassword(t *testing.T) {
	assert.True(t, IsComplexPassword("Str0ng!pass"))

	weak := map[string]string{
		"short":        "S0!a",
		"no upper":     "weak1pass!",
		"no lower":     "WEAK1PASS!",
		"no digit":     "Weakpass!!",
		"no special":   "Weak1pass2",
		"empty string": "",
	}
	for name, password := range weak {
		assert.False(t, IsComplexPassword(password), name)
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
