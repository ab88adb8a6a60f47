// Package storekittest provides a small reference entity used by storekit's
// own tests and examples. It doubles as a template for wiring a domain type
// into the generic repositories.
package storekittest

import (
	"github.com/castlebit/storekit/entity"
)

// User is a minimal entity: embedded metadata plus a few filterable fields.
type User struct {
	entity.Metadata
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

// Users is the Descriptor for *User.
var Users entity.Descriptor[*User] = userDescriptor{}

type userDescriptor struct{}

func (userDescriptor) Name() string { return "users" }

func (userDescriptor) New() *User { return &User{} }

func (userDescriptor) Clone(u *User) *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (userDescriptor) Value(u *User, field string) (any, bool) {
	switch field {
	case "id":
		return u.ID, true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "age":
		return u.Age, true
	}
	return nil, false
}
