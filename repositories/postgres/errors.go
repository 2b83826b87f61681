package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/agent-cost-control/repositories"
)

// SQLSTATE codes the repositories translate.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// translateError maps constraint violations onto repository errors and
// wraps everything else with the operation name.
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, repositories.ErrReferenceMissing, pqErr.Constraint)
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, repositories.ErrDuplicate, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
