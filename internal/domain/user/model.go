package user

import "time"

type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleStakeholder Role = "stakeholder"
)

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleStakeholder
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Password  string    `json:"-"` // хэш
	CreatedAt time.Time `json:"created_at"`
}
