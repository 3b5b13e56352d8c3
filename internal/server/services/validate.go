package services

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// maxEmailLength matches the users.email column.
const maxEmailLength = 100

var errPasswordTooLong = errors.New("Password must be at most 72 bytes")

func maxBytes(value interface{}) error {
	s, _ := value.(string)
	if len(s) > cryptox.MaxPasswordBytes {
		return errPasswordTooLong
	}
	return nil
}

func validateRegister(req *models.RegisterRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Username,
			validation.Required.Error("Username is required"),
			validation.RuneLength(3, 50).Error("Username must be between 3 and 50 characters"),
		),
		validation.Field(&req.Email,
			validation.Required.Error("Email is required"),
			validation.RuneLength(0, maxEmailLength).Error("Email must be at most 100 characters"),
			is.Email.Error("Email should be valid"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(6, 0).Error("Password must be at least 6 characters"),
			validation.By(maxBytes),
		),
	)
	return toValidationError(err)
}

func validateLogin(req *models.LoginRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.UsernameOrEmail,
			validation.Required.Error("Username or email is required"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("Password is required"),
			validation.By(maxBytes),
		),
	)
	return toValidationError(err)
}

// toValidationError converts ozzo field errors into common.ValidationError.
// Any other error is returned unchanged.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	ve := common.NewValidationError()
	for field, fieldErr := range errs {
		ve.Add(field, fieldErr.Error())
	}
	return ve
}
