package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want bool
	}{
		{"user_accounts", Snake, true},
		{"userAccounts", Snake, false},
		{"user-accounts", Snake, false},
		{"userAccounts", Camel, true},
		{"UserAccounts", Camel, false},
		{"UserAccounts", Pascal, true},
		{"userAccounts", Pascal, false},
		{"user-accounts", Kebab, true},
		{"user_accounts", Kebab, false},
		{"", Snake, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.name, tt.c), "%s as %s", tt.name, tt.c)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		in   string
		c    Case
		want string
	}{
		{"user_accounts", Pascal, "UserAccounts"},
		{"user_accounts", Camel, "userAccounts"},
		{"UserAccounts", Snake, "user_accounts"},
		{"userAccounts", Kebab, "user-accounts"},
		{"user-accounts", Snake, "user_accounts"},
		{"status", Pascal, "Status"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Convert(tt.in, tt.c), "%s to %s", tt.in, tt.c)
	}
}

func TestParseCase(t *testing.T) {
	c, err := ParseCase("snake")
	assert.NoError(t, err)
	assert.Equal(t, Snake, c)

	_, err = ParseCase("screaming")
	assert.Error(t, err)
}
