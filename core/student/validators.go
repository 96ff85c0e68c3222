package student

import (
	"fmt"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/vidyasetu/vidyasetu/core"
)

var (
	// student passwords are handed out by teachers, hence a lighter policy than staff ones
	pwdMinLen     = 6
	pwdMinLenTag  = "stdpwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "stdpwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"
)

// InitValidators registers the Student validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(studentStructValidation, NewStudent{}, UpdateStudent{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
}

func studentStructValidation(sl validator.StructLevel) {
	switch std := sl.Current().Interface().(type) {
	case NewStudent:
		validatePassword(std.Password, sl)
	case UpdateStudent:
		if std.Password != nil {
			validatePassword(*std.Password, sl)
		}
	}
}

func validatePassword(pwd string, sl validator.StructLevel) {
	if tag := CheckPassword(pwd); tag != "" {
		sl.ReportError(pwd, "password", "password", tag, "")
	}
}

// CheckPassword returns the tag of the first rule pwd breaks, or "".
func CheckPassword(pwd string) string {
	if len([]rune(pwd)) < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
	}
	return ""
}
