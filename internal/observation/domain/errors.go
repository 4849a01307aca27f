package domain

import (
	"fmt"

	apperrors "github.com/wms-platform/fulfillment-orchestrator/pkg/errors"
)

// OrderSourceError wraps a failure reading from or writing to the order source
type OrderSourceError struct {
	Operation string
	Err       error
}

func (e *OrderSourceError) Error() string {
	return fmt.Sprintf("order source error during %s: %v", e.Operation, e.Err)
}

func (e *OrderSourceError) Unwrap() error { return e.Err }

func (e *OrderSourceError) ErrorKind() apperrors.Kind { return apperrors.KindExternal }
