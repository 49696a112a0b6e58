package model

// Principal is the caller identity decoded from the edge proxy's header.
type Principal struct {
	UserID      string   `json:"userId"`
	UserDetails string   `json:"userDetails"`
	UserRoles   []string `json:"userRoles"`
	FullName    string   `json:"fullName,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`

	IsAdmin     bool   `json:"isAdmin"`
	DisplayName string `json:"displayName"`
}
