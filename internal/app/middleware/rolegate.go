package middleware

// Tier is a rendering tier derived from a verified role. Pages render
// strictly by tier; nothing above the resolved tier is ever produced.
type Tier int

const (
	// TierNone renders nothing privileged.
	TierNone Tier = iota
	// TierRestricted renders the plain welcome view.
	TierRestricted
	// TierManager renders the full management UI.
	TierManager
)

// Roles recognised by the API.
const (
	RoleUser    = "user"
	RoleAnggota = "anggota"
	RoleDosen   = "dosen"
)

// TierFor maps a role to its rendering tier. It is a pure function: the same
// role always yields the same tier.
func TierFor(role string) Tier {
	switch role {
	case RoleAnggota, RoleDosen:
		return TierManager
	case RoleUser:
		return TierRestricted
	default:
		return TierNone
	}
}
