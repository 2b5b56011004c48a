package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
)

// storageErr marks unexpected repository failures as storage unavailability
// while keeping sentinel errors such as not found intact.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) ||
		errors.Is(err, common.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

// recordErr maps repository errors on a single record to user errors.
func recordErr(err error, notFound, conflict string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, common.ErrorAlreadyExists) && conflict != "":
		return apperr.Conflict(conflict)
	}
	return storageErr(err)
}
