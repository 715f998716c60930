package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isDuplicateKeyError reports a unique violation on a constraint or index
// whose name contains name.
func isDuplicateKeyError(err error, name string) bool {
	return isPgError(err, pgUniqueViolation, name)
}

// isForeignKeyError reports a foreign key violation on a constraint whose
// name contains name.
func isForeignKeyError(err error, name string) bool {
	return isPgError(err, pgForeignKeyViolation, name)
}

func isPgError(err error, code, name string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(name))
	}
	return false
}

// likePattern escapes LIKE metacharacters so fragment matches literally.
func likePattern(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(fragment) + "%"
}
