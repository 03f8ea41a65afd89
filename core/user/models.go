package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/upskillhq/upskill/core"
)

// Roles
const (
	RoleAdmin         = "ADMIN"
	RoleManager       = "MANAGER"
	RoleTeamLead      = "TL"
	RoleSeniorManager = "SRMGR"
	RoleEmployee      = "EMPLOYEE"
)

var (
	// ManagerRoles can manage users, teams and course approvals.
	ManagerRoles = []string{RoleAdmin, RoleManager, RoleTeamLead, RoleSeniorManager}
	AllRoles     = []string{RoleAdmin, RoleManager, RoleTeamLead, RoleSeniorManager, RoleEmployee}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Manager", Value: RoleManager},
		{Name: "Team Lead", Value: RoleTeamLead},
		{Name: "Senior Manager", Value: RoleSeniorManager},
		{Name: "Employee", Value: RoleEmployee},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	TeamID       *string   `json:"team"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"date_joined"` // UTC
	UpdatedAt    time.Time `json:"-"`           // UTC
	LastLogin    time.Time `json:"last_login"`  // UTC
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManager reports whether the user holds any of the manager-level roles.
func (u *User) IsManager() bool {
	for _, role := range ManagerRoles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// PublicUser is the projection of a User returned to clients on login.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	Role            string  `json:"role" validate:"omitempty,oneof=ADMIN MANAGER TL SRMGR EMPLOYEE"`
	TeamID          *string `json:"team"`
	Password        string  `json:"password" validate:"required"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. Fields not listed here cannot be changed through this path.
type UpdateUser struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Role            string  `json:"role" validate:"omitempty,oneof=ADMIN MANAGER TL SRMGR EMPLOYEE"`
	TeamID          *string `json:"team"`
	IsActive        *bool   `json:"is_active"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if name := core.CleanString(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string  `query:"search"`
	Role     string  `query:"role"`
	TeamID   *string `query:"team"`
	IsActive *bool   `query:"is_active"`

	// Ordering is set from the "ordering" query param, not bound directly.
	Ordering []core.DBOrdering `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.TeamID == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = strings.ToUpper(core.CleanString(qf.Role))
}
