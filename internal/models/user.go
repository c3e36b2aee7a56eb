package models

// User is a blogpost publisher. Users are only created by the seeder.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	FullName string `json:"fullName" gorm:"type:varchar(255)"`
	Role     string `json:"role" gorm:"type:varchar(32);default:user"`
}

// DefaultRole is the authority given to users that have none set.
const DefaultRole = "user"

// Authorities returns the roles granted to the user.
func (u *User) Authorities() []string {
	if u.Role == "" {
		return []string{DefaultRole}
	}
	return []string{u.Role}
}
