package application

const (
	RoleUser  string = "user"
	RoleAdmin string = "admin"
)
