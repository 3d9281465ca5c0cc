package contract

import "fmt"

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// ParseRole converts a string into a Role, rejecting anything unknown.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return Role(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
}

// Actor identifies who is asking.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Filter returns the listing filter the actor is allowed to see.
func (a Actor) Filter() (ListFilter, error) {
	switch a.Role {
	case RoleClient:
		if a.ID == "" {
			return ListFilter{}, ErrInvalidInput
		}
		return ListFilter{ClientID: a.ID}, nil
	case RoleFreelancer:
		if a.ID == "" {
			return ListFilter{}, ErrInvalidInput
		}
		return ListFilter{FreelancerID: a.ID}, nil
	case RoleAdmin:
		return ListFilter{}, nil
	default:
		return ListFilter{}, fmt.Errorf("%w: %q", ErrInvalidRole, a.Role)
	}
}

// Sees reports whether the actor is a party to c (admins see everything).
func (a Actor) Sees(c *Contract) bool {
	switch a.Role {
	case RoleClient:
		return c.ClientID == a.ID
	case RoleFreelancer:
		return c.FreelancerID == a.ID
	case RoleAdmin:
		return true
	default:
		return false
	}
}
