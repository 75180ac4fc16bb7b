package db

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ems/internal/domain/apperror"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

var constraintMessages = map[string]string{
	"employees_email_key":            "Email already exists",
	"employees_personal_email_key":   "Personal email already exists",
	"employees_mobile_key":           "Mobile number already exists",
	"profile_photos_employee_id_key": "Employee already has a profile photo",
}

// Translate maps driver errors onto application error kinds. pgx.ErrNoRows
// becomes NotFound with the given message; constraint violations become
// DuplicateValue, NotFound or InvalidArgument. Anything else is wrapped
// with op and left unclassified.
func Translate(err error, op, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if notFound == "" {
			notFound = "Resource not found"
		}
		return apperror.New(apperror.ErrNotFound, notFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return errors.Wrap(err, op)
	}
	switch pgErr.Code {
	case uniqueViolation:
		if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
			return apperror.New(apperror.ErrDuplicateValue, msg)
		}
		return apperror.New(apperror.ErrDuplicateValue, "Duplicate value violates a unique constraint")
	case foreignKeyViolation:
		return apperror.Newf(apperror.ErrNotFound, "Referenced record does not exist (%s)", pgErr.ConstraintName)
	case checkViolation:
		return apperror.Newf(apperror.ErrInvalidArgument, "Value violates constraint %s", pgErr.ConstraintName)
	}
	return errors.Wrapf(err, "%s (sqlstate %s)", op, pgErr.Code)
}
