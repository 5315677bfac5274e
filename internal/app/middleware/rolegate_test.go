package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		role string
		want Tier
	}{
		{RoleUser, TierRestricted},
		{RoleAnggota, TierManager},
		{RoleDosen, TierManager},
		{"", TierNone},
		{"admin", TierNone},
		{"DOSEN", TierNone},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, TierFor(tc.role), "role %q", tc.role)
	}
}

func TestTierForIsStable(t *testing.T) {
	// Mapping a role must not depend on prior lookups.
	first := TierFor(RoleDosen)
	TierFor(RoleUser)
	TierFor("")
	assert.Equal(t, first, TierFor(RoleDosen))
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierNone < TierRestricted)
	assert.True(t, TierRestricted < TierManager)
}
