package ignorelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsIgnored(t *testing.T) {
	checker := NewChecker([]string{" SPSmiles.co.za ", "partner@gmail.com", "@staff.example", "", "@"}, zap.NewNop())

	tests := []struct {
		address string
		want    bool
	}{
		{"ops@spsmiles.co.za", true},
		{"OPS@SPSMILES.CO.ZA", true},
		{"partner@gmail.com", true},
		{"someone@gmail.com", false},
		{"principal@staff.example", true},
		{"principal@greenfield.edu", false},
		{"spsmiles.co.za", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsIgnored(tt.address))
		})
	}
	assert.Equal(t, 3, checker.Len())
}

func TestDomainEntryForms(t *testing.T) {
	for _, entry := range []string{"staff.example", "@staff.example", " @Staff.Example "} {
		t.Run(entry, func(t *testing.T) {
			checker := NewChecker([]string{entry}, zap.NewNop())
			assert.Equal(t, 1, checker.Len())
			assert.True(t, checker.IsIgnored("principal@staff.example"))
			assert.False(t, checker.IsIgnored("principal@other.example"))
		})
	}
}

func TestEmptyChecker(t *testing.T) {
	checker := NewChecker(nil, nil)
	assert.False(t, checker.IsIgnored("ops@spsmiles.co.za"))
	assert.Zero(t, checker.Len())
}
