package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/upskillhq/upskill/core"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name    string
		pwd     string
		email   string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1$", email: "jane@test.cd", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Sp ace$1word", email: "jane@test.cd", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", email: "jane@test.cd", wantTag: pwdNotAllNumTag},
		{name: "no special character", pwd: "Password1", email: "jane@test.cd", wantTag: pwdComplexityTag},
		{name: "no uppercase", pwd: "password$1", email: "jane@test.cd", wantTag: pwdComplexityTag},
		{name: "similar to email", pwd: "G0ph3r@test.cd", email: "g0ph3r@test.cd", wantTag: pwdAttrSimTag},
		{name: "strong password", pwd: "G0ph3r$Rule", email: "jane@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Email:           tt.email,
				FirstName:       "Jane",
				LastName:        "Doe",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)

			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Struct() failed: %v", err)
				}
				return
			}
			errs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			for _, fErr := range errs {
				if fErr.Tag() == tt.wantTag {
					return
				}
			}
			t.Errorf("Struct() errors = %v, want tag %s", errs, tt.wantTag)
		})
	}
}

func TestPasswordPolicy_updateSkipsBlankPassword(t *testing.T) {
	validate := newTestValidator()

	if err := validate.Struct(UpdateUser{FirstName: "Jane"}); err != nil {
		t.Errorf("Struct() failed: %v", err)
	}
}
