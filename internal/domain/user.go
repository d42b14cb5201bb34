// Package domain contains core domain types for the Nia console.
package domain

// Parent is the authenticated account holder.
type Parent struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DisplayName returns the name shown in the header, falling back to the email.
func (p Parent) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// AuthResult is the token payload returned by the login and register endpoints.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ParentID    int64  `json:"parent_id,omitempty"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Parent derives the parent identity from the payload. email is used when the
// server omits it.
func (r AuthResult) Parent(email string) Parent {
	name := r.FullName
	if name == "" {
		name = r.Name
	}
	if r.Email != "" {
		email = r.Email
	}
	if name == "" {
		name = email
	}
	return Parent{Name: name, Email: email}
}
