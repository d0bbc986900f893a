package school

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/shule/core"
)

type School struct {
	ID        int         `json:"school_id" db:"school_id"`
	Name      string      `json:"name" db:"name"`
	Address   null.String `json:"address" db:"address"`
	Contact   null.String `json:"contact" db:"contact"`
	Principal null.String `json:"principal" db:"principal"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

type NewSchool struct {
	Name      string `json:"name" validate:"required,max=255"`
	Address   string `json:"address" validate:"omitempty,max=500"`
	Contact   string `json:"contact" validate:"omitempty,max=100"`
	Principal string `json:"principal" validate:"omitempty,max=255"`
}

func (ns *NewSchool) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Contact = core.CleanString(ns.Contact)
	ns.Principal = core.CleanString(ns.Principal)
	return core.Validate.Struct(ns)
}

type UpdateSchool struct {
	Name      string `json:"name" validate:"omitempty,max=255"`
	Address   string `json:"address" validate:"omitempty,max=500"`
	Contact   string `json:"contact" validate:"omitempty,max=100"`
	Principal string `json:"principal" validate:"omitempty,max=255"`
}

func (us *UpdateSchool) Validate() error {
	us.Name = core.CleanString(us.Name)
	us.Address = core.CleanString(us.Address)
	us.Contact = core.CleanString(us.Contact)
	us.Principal = core.CleanString(us.Principal)
	return core.Validate.Struct(us)
}
