package team

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/upskillhq/upskill/core"
)

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ManagerID   *string   `json:"manager"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewTeam contains information needed to create a new Team.
type NewTeam struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	ManagerID   *string `json:"manager"`
}

func (nt *NewTeam) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// UpdateTeam defines what information may be provided to modify an existing Team.
type UpdateTeam struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ManagerID   *string `json:"manager"`
}

func (ut *UpdateTeam) Validate(orig Team, validate *validator.Validate) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	ut.Description = core.CleanString(ut.Description)
	if ut.Description == "" {
		ut.Description = orig.Description
	}
	if ut.ManagerID == nil {
		ut.ManagerID = orig.ManagerID
	}
	return validate.Struct(ut)
}
