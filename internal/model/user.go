package model

// User is the slice of the Identity Store's account we care about. The
// Identity Store remains the system of record; rows here are never created
// by this service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
