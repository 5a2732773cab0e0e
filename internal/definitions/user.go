package definitions

import (
	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
)

// User document fields.
const (
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldActive    = "active"
)

// UserDefinition indexes user accounts. Users are system entities, so every
// site's user index holds all users.
type UserDefinition struct {
	*index.BaseDefinition[*content.User]
}

// NewUserDefinition creates the user definition.
func NewUserDefinition(opts ...index.DefinitionOption) *UserDefinition {
	return &UserDefinition{
		BaseDefinition: index.NewBaseDefinition("Users", "users", convertUser, opts...),
	}
}

func convertUser(u *content.User) index.Document {
	return index.NewDocument().
		Set(FieldEmail, u.Email).
		Set(FieldFirstName, u.FirstName).
		Set(FieldLastName, u.LastName).
		Set(FieldName, u.Name()).
		Set(FieldActive, u.IsActive)
}
