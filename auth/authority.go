package auth

import "strings"

// Authority is a normalized role name carried by a Principal
type Authority string

const authorityPrefix = "ROLE_"

const (
	AuthorityStudent    Authority = "ROLE_STUDENT"
	AuthorityUser       Authority = "ROLE_USER"
	AuthorityInstructor Authority = "ROLE_INSTRUCTOR"
	AuthorityAdmin      Authority = "ROLE_ADMIN"
)

var knownAuthorities = map[Authority]struct{}{
	AuthorityStudent:    {},
	AuthorityUser:       {},
	AuthorityInstructor: {},
	AuthorityAdmin:      {},
}

// ParseAuthority maps a role claim value onto a known Authority.
// Both "STUDENT" and "ROLE_STUDENT" map to AuthorityStudent. Matching is
// case-sensitive; anything else is reported as unknown.
func ParseAuthority(role string) (Authority, bool) {
	role = strings.TrimSpace(role)
	if role == "" {
		return "", false
	}
	if !strings.HasPrefix(role, authorityPrefix) {
		role = authorityPrefix + role
	}
	a := Authority(role)
	if _, ok := knownAuthorities[a]; !ok {
		return "", false
	}
	return a, true
}

// String returns the authority name
func (a Authority) String() string {
	return string(a)
}
