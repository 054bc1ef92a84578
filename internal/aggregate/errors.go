package aggregate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrNoExchanges is the structural error: the registry is empty and no
// request can proceed.
var ErrNoExchanges = errors.New("no exchanges registered")

// InvalidRequestError rejects a request before any connector is touched.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// invalidRequest converts a validator error into an InvalidRequestError on
// the first failing field.
func invalidRequest(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvalidRequestError{
			Field:  fe.Field(),
			Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return &InvalidRequestError{Field: "request", Reason: err.Error()}
}
