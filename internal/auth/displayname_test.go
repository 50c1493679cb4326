package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameFromEmail(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "jane.doe"},
		{"JANE@sub.example.com", "JANE"},
		{"nodomain", "nodomain"},
		{"@example.com", "@example.com"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, displayNameFromEmail(tc.email), "email %q", tc.email)
	}
}
