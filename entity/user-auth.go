package entity

import (
	"ScanFlow/internal/lib/validate"
	"net/http"
)

// UserAuth is the caller identified by an API key.
type UserAuth struct {
	Username string `json:"username" bson:"username" validate:"required"`
	Token    string `json:"-" bson:"key" validate:"required,min=1"`
}

func (u *UserAuth) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
