package model

// UserRole mirrors the role claim issued by the auth service. The engine
// never manages users itself; it only trusts the claim.
type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)
