package service

import (
	"fmt"

	"SubletHubPlatform/pkg/errors"
)

func invalidInput(format string, args ...interface{}) error {
	return errors.New(errors.ErrValidation, "invalid input").WithDetails(fmt.Sprintf(format, args...))
}
