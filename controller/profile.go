// ABOUTME: Form controller for the signed-in user's own profile
// ABOUTME: Edits name and optionally the password with a matching confirmation
package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/models"
)

// ProfileSource persists the signed-in user's own profile.
type ProfileSource interface {
	UpdateProfile(ctx context.Context, p api.ProfileUpdate) (models.User, error)
}

var profileSchema = NewSchema(
	[]Rule{
		{Field: "name", Tags: "required,max=60"},
		{Field: "password", Tags: "omitempty,min=5"},
	},
	CrossRule{Field: "repeatPassword", Other: "password", Tags: "eqfield", Message: "passwords do not match"},
)

// ProfileForm edits the current user.
type ProfileForm struct {
	src     ProfileSource
	nav     Navigator
	onSaved func(models.User)
	logger  *zap.Logger

	values  models.Record
	errors  ValidationErrors
	message string
	status  Status
}

// NewProfileForm starts from the current user. onSaved receives the
// updated identity so the session can be refreshed.
func NewProfileForm(user models.User, src ProfileSource, nav Navigator, onSaved func(models.User), logger *zap.Logger) *ProfileForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileForm{
		src:     src,
		nav:     nav,
		onSaved: onSaved,
		logger:  logger,
		values: models.Record{
			"name":           user.Name,
			"email":          user.Email,
			"password":       "",
			"repeatPassword": "",
		},
		errors: ValidationErrors{},
		status: StatusLoaded,
	}
}

// Values returns a copy of the form values.
func (p *ProfileForm) Values() models.Record { return p.values.Clone() }

// Errors returns the field errors.
func (p *ProfileForm) Errors() ValidationErrors { return p.errors }

// Message returns the top-level error.
func (p *ProfileForm) Message() string { return p.message }

// Status returns the lifecycle state.
func (p *ProfileForm) Status() Status { return p.status }

// Set updates a field and revalidates it. Changing the password also
// revalidates its confirmation.
func (p *ProfileForm) Set(field string, value string) {
	p.values[field] = value
	p.status = StatusDirty
	p.message = ""
	p.revalidate(field)
	if field == "password" {
		p.revalidate("repeatPassword")
	}
}

func (p *ProfileForm) revalidate(field string) {
	if msg := profileSchema.ValidateField(p.values, field); msg != "" {
		p.errors[field] = msg
	} else {
		delete(p.errors, field)
	}
}

// Submit saves the profile and returns home.
func (p *ProfileForm) Submit(ctx context.Context) error {
	if errs := profileSchema.Validate(p.values); errs != nil {
		p.errors = errs
		return errs
	}
	p.status = StatusSubmitting

	user, err := p.src.UpdateProfile(ctx, api.ProfileUpdate{
		Name:           p.values.String("name"),
		Email:          p.values.String("email"),
		Password:       p.values.String("password"),
		RepeatPassword: p.values.String("repeatPassword"),
	})
	if err != nil {
		msg, recognized := api.DisplayMessage(err)
		if !recognized {
			p.logger.Error("profile update failed", zap.Error(err))
		}
		p.status = StatusFailed
		p.message = msg
		return err
	}

	if user.Name == "" {
		user.Name = p.values.String("name")
		user.Email = p.values.String("email")
	}
	p.status = StatusSucceeded
	if p.onSaved != nil {
		p.onSaved(user)
	}
	p.nav.Push("/home")
	return nil
}
