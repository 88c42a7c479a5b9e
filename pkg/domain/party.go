package domain

// Customer is a buyer registered for sales.
type Customer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// User is an account managed on the users screen.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"fullName,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Active   bool     `json:"active"`
}

// Company is the tenant record the signed-in user belongs to.
type Company struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Plan     string `json:"plan,omitempty"`
}
