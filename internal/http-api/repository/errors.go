package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Page is a limit/offset window. Limit <= 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// Postgres SQLSTATE codes that gorm does not translate itself.
const (
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

// IsCheckViolation reports whether err is a CHECK constraint failure
// raised by Postgres, e.g. the self-follow guard on follows.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation || pgErr.Code == pgNotNullViolation
	}
	return false
}

func IsDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func IsForeignKey(err error) bool { return errors.Is(err, gorm.ErrForeignKeyViolated) }
