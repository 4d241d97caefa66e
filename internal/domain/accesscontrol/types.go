package accesscontrol

import "time"

type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleCustomer RoleName = "customer"
)

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
