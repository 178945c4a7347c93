package domain

// User is the authenticated shopper.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
