package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/realty-service/internal/repository"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// storeError translates repository failures into the client-facing taxonomy.
// resource names the entity a plain ErrNotFound refers to.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if field, ok := repository.IsDuplicate(err); ok {
		return apperrors.NewConflict(fmt.Sprintf("%s already in use", field), map[string]any{"field": field})
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrAgentNotFound):
		return apperrors.NewNotFound("agent", nil)
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperrors.NewUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
