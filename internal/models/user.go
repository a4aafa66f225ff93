package models

// Credential is one row of the users list: who may log in and with
// which PIN. The scheduler only ever reads these.
type Credential struct {
	Name string `json:"name"`
	Pin  string `json:"-"`
	Role string `json:"role"`
}

// User is the authenticated identity returned to the boundary layer.
type User struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
