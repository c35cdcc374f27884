package auth

// Identity is the verified principal for one request. It is assembled from
// token claims on every call and never persisted.
type Identity struct {
	// Subject is the provider's stable user id (the "sub" claim).
	Subject string `json:"id"`
	// Username is the login name (the "preferred_username" claim).
	Username string `json:"preferred_username"`
	// Email is optional.
	Email string `json:"email,omitempty"`
	// FullName is the "name" claim, falling back to "given_name".
	FullName string `json:"full_name,omitempty"`
	// Roles is the union of realm roles and this client's roles, sorted.
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the identity holds at least one of the
// required roles.
func (i *Identity) HasAnyRole(required ...string) bool {
	for _, want := range required {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
