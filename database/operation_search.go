package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/visionlab/visionbackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const defaultSearchLimit = 100

// OperationFilter describes the optional predicates of an operation search.
// Zero values mean "no filter".
type OperationFilter struct {
	OwnerID        *int64 // scopes results to one user's projects
	ProjectImageID *int64
	Algorithm      string
	Success        *bool
	Since          *time.Time
	Until          *time.Time
	Limit          uint64
}

// SearchOperations runs a filtered query over the processing_operations
// table directly against the underlying connection. The dynamic predicate
// set is easier to express with a query builder than through the ORM.
// Results are always newest-first.
func SearchOperations(db *sql.DB, filter OperationFilter) ([]models.ProcessingOperation, error) {
	queryBuilder := psql.Select(
		"po.id", "po.timestamp", "po.algorithm", "po.parameters",
		"po.success", "po.error_message", "po.execution_time_ms", "po.project_image_id",
	).From("processing_operations po")

	if filter.OwnerID != nil {
		queryBuilder = queryBuilder.
			Join("project_images pi ON pi.id = po.project_image_id").
			Join("projects p ON p.id = pi.project_id").
			Where(sq.Eq{"p.owner_id": *filter.OwnerID})
	}
	if filter.ProjectImageID != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"po.project_image_id": *filter.ProjectImageID})
	}
	if filter.Algorithm != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"po.algorithm": filter.Algorithm})
	}
	if filter.Success != nil {
		queryBuilder = queryBuilder.Where(sq.Eq{"po.success": *filter.Success})
	}
	if filter.Since != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"po.timestamp": *filter.Since})
	}
	if filter.Until != nil {
		queryBuilder = queryBuilder.Where(sq.Lt{"po.timestamp": *filter.Until})
	}

	limit := filter.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}
	queryBuilder = queryBuilder.OrderBy("po.timestamp DESC", "po.id DESC").Limit(limit)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for SearchOperations: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []models.ProcessingOperation
	for rows.Next() {
		var op models.ProcessingOperation
		err := rows.Scan(
			&op.ID, &op.Timestamp, &op.Algorithm, &op.Parameters,
			&op.Success, &op.ErrorMessage, &op.ExecutionTimeMs, &op.ProjectImageID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}
	return ops, nil
}
