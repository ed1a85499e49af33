package contacts

import (
	"testing"

	"github.com/mikey/email-concierge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIsKnown(t *testing.T) {
	dir := NewDirectory(
		[]string{"Mom@Family.org ", ""},
		[]string{"@acme.com", "Partner.IO"},
		zaptest.NewLogger(t),
	)

	tests := []struct {
		sender string
		want   bool
	}{
		{"mom@family.org", true},
		{"Mom <MOM@family.org>", true},
		{"dad@family.org", false},
		{"Boss <boss@acme.com>", true},
		{"ops@eu.acme.com", true},
		{"someone@notacme.com", false},
		{"x@partner.io", true},
		{"not an address", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, dir.IsKnown(tt.sender))
		})
	}
}

func TestEmptyDirectory(t *testing.T) {
	dir := NewDirectory(nil, nil, nil)
	assert.False(t, dir.IsKnown("anyone@example.com"))
}

func TestResolve(t *testing.T) {
	dir := NewDirectory([]string{"mom@family.org"}, nil, zaptest.NewLogger(t))

	hints := dir.Resolve(core.Hints{}, "mom@family.org")
	require.NotNil(t, hints.KnownContact)
	assert.True(t, *hints.KnownContact)

	hints = dir.Resolve(core.Hints{}, "stranger@example.com")
	assert.Nil(t, hints.KnownContact)

	// an explicit false from the caller wins
	hints = dir.Resolve(core.Hints{KnownContact: core.Bool(false)}, "mom@family.org")
	require.NotNil(t, hints.KnownContact)
	assert.False(t, *hints.KnownContact)
}
