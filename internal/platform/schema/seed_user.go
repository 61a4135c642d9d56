package schema

// UserTable represents the 'seed.user' table
type UserTable struct {
	Table        string
	ID           string
	Username     string
	Email        string
	Role         string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

// User is the schema definition for seed.user
var User = UserTable{
	Table:        "seed.user",
	ID:           "id",
	Username:     "username",
	Email:        "email",
	Role:         "role",
	PasswordHash: "passwordhash",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

func (t UserTable) Columns() []string {
	return []string{t.ID, t.Username, t.Email, t.Role, t.PasswordHash, t.CreatedAt, t.UpdatedAt}
}
