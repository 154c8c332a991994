package auth

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	MsgUsernameLength   = "Username should have more than 5 character and up to 30 characters."
	MsgUsernameFormat   = "Username should have length greater than 5 and lower or equal to 30, all lowercase and have no spaces."
	MsgUsernameInUse    = "Username already in use."
	MsgPasswordRequired = "A password should be passed."
	MsgPasswordLength   = "Password should have between 8 and 20 characters."
	MsgPasswordBytes    = "Password should be at most 72 bytes long."
	MsgPasswordFormat   = "Password should have a special character, an uppercase character, a numeric character and no space."
	MsgPasswordsDiffer  = "Passwords should be equal."
	MsgEmailInvalid     = "Email should be a valid address."
	MsgFirstName        = "First name is required and should have up to 50 characters."
	MsgLastName         = "Last name is required and should have up to 50 characters."
)

// ValidateUsername checks 6 to 30 characters, no uppercase letters and
// no whitespace
func ValidateUsername(username string) error {
	err := validation.Validate(username,
		validation.Required.Error(MsgUsernameLength),
		validation.RuneLength(6, 30).Error(MsgUsernameLength),
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			for _, r := range s {
				if unicode.IsSpace(r) || (unicode.IsLetter(r) && !unicode.IsLower(r)) {
					return errors.New(MsgUsernameFormat)
				}
			}
			return nil
		}),
	)
	return asValidationError("username", err)
}

// bcrypt rejects longer inputs
const maxPasswordBytes = 72

// ValidatePassword checks 8 to 20 characters with at least one
// uppercase letter, one digit, one symbol and no whitespace
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required.Error(MsgPasswordRequired),
		validation.RuneLength(8, 20).Error(MsgPasswordLength),
		validation.Length(0, maxPasswordBytes).Error(MsgPasswordBytes),
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			var upper, digit, special bool
			for _, r := range s {
				switch {
				case unicode.IsSpace(r):
					return errors.New(MsgPasswordFormat)
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				case !unicode.IsLetter(r) && !unicode.IsNumber(r):
					special = true
				}
			}
			if !upper || !digit || !special {
				return errors.New(MsgPasswordFormat)
			}
			return nil
		}),
	)
	return asValidationError("password", err)
}

// ValidatePasswordConfirm compares the confirmation byte for byte
func ValidatePasswordConfirm(password, confirm string) error {
	if password != confirm {
		return NewValidationError("password_confirm", MsgPasswordsDiffer)
	}
	return nil
}

// ValidateProfile checks the contact fields stored with the user
func ValidateProfile(email, firstName, lastName string) error {
	if err := validation.Validate(email,
		validation.Required.Error(MsgEmailInvalid),
		validation.RuneLength(0, 100).Error(MsgEmailInvalid),
		is.Email.Error(MsgEmailInvalid),
	); err != nil {
		return asValidationError("email", err)
	}

	if err := validation.Validate(firstName,
		validation.Required.Error(MsgFirstName),
		validation.RuneLength(0, 50).Error(MsgFirstName),
	); err != nil {
		return asValidationError("first_name", err)
	}

	if err := validation.Validate(lastName,
		validation.Required.Error(MsgLastName),
		validation.RuneLength(0, 50).Error(MsgLastName),
	); err != nil {
		return asValidationError("last_name", err)
	}

	return nil
}

func asValidationError(field string, err error) error {
	if err == nil {
		return nil
	}
	return NewValidationError(field, err.Error())
}
