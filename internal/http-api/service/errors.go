package service

import (
	"fmt"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/shared"
)

var errNotAuthenticated = apperr.Unauthorized("authentication credentials were not provided")

func requireIdentity(viewer shared.Identity) error {
	if viewer.IsAnonymous() {
		return errNotAuthenticated
	}
	return nil
}

// storeError maps store failures onto the taxonomy. Unrecognised errors
// pass through and render as 500.
func storeError(err error, notFound *apperr.Error) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err) && notFound != nil:
		return notFound
	case repository.IsDuplicate(err):
		return apperr.Wrap(apperr.KindConflict, "already_exists", "a record with these values already exists", err)
	case repository.IsForeignKey(err):
		return apperr.Wrap(apperr.KindReference, "unknown_reference", "a referenced record does not exist", err)
	case repository.IsCheckViolation(err):
		return apperr.Wrap(apperr.KindValidation, "constraint_violation", "value rejected by a store constraint", err)
	default:
		return err
	}
}

func recipeNotFound(id int64) *apperr.Error {
	return apperr.NotFound("recipe_not_found", fmt.Sprintf("recipe %d not found", id))
}

func userNotFound(id string) *apperr.Error {
	return apperr.NotFound("user_not_found", fmt.Sprintf("user %s not found", id))
}
