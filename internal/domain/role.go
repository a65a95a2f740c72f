package domain

import (
	"encoding/json"
	"strings"
)

// Role is the coarse access category attached to an account.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleProfessor
	RoleAdmin
)

// Capability names a view or action a role may reach.
type Capability int

const (
	CapStudentDashboard Capability = iota + 1
	CapTakeQuiz
	CapProfessorDashboard
	CapAdminDashboard
)

var roleNames = map[Role]string{
	RoleStudent:   "student",
	RoleProfessor: "professor",
	RoleAdmin:     "admin",
}

var capabilities = map[Role][]Capability{
	RoleStudent:   {CapStudentDashboard, CapTakeQuiz},
	RoleProfessor: {CapProfessorDashboard},
	RoleAdmin:     {CapAdminDashboard},
}

// ParseRole accepts the API's role strings case-insensitively ("STUDENT", "Student", ...).
func ParseRole(raw string) (Role, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	needle = strings.TrimPrefix(needle, "role_")
	for role, name := range roleNames {
		if name == needle {
			return role, nil
		}
	}
	return RoleUnknown, ErrUnknownRole
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range capabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// DashboardPath is where a role lands after login or a denied navigation.
func (r Role) DashboardPath() string {
	switch r {
	case RoleStudent:
		return "/student/dashboard"
	case RoleProfessor:
		return "/professor/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleUnknown {
		return json.Marshal("")
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON leaves unrecognised roles as RoleUnknown so that a profile
// with an unexpected role still loads but is granted nothing.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseRole(raw)
	if err != nil {
		*r = RoleUnknown
		return nil
	}
	*r = role
	return nil
}
