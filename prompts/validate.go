package prompts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	variableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	validate            *validator.Validate
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("variabletype", validateVariableType)
	_ = validate.RegisterValidation("variablename", validateVariableName)
}

func validateVariableType(fl validator.FieldLevel) bool {
	switch VariableType(strings.ToUpper(fl.Field().String())) {
	case VariableString, VariableNumber, VariableBoolean:
		return true
	}
	return false
}

func validateVariableName(fl validator.FieldLevel) bool {
	return variableNamePattern.MatchString(fl.Field().String())
}

// ValidateVariable checks the type and name of a prompt.json variable.
func ValidateVariable(v LocalVariable) error {
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("variable name cannot be empty")
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Name":
		return errors.New("variable name can only contain letters, numbers, and underscores, and must start with a letter or underscore")
	default:
		return fmt.Errorf("invalid variable type: %s. Valid types are: %s, %s, %s",
			v.Type, VariableString, VariableNumber, VariableBoolean)
	}
}
