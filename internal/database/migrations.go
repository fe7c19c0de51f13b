package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

// compositeIndexes back the visibility predicate and the common task filters.
var compositeIndexes = []struct {
	table   string
	name    string
	columns []string
}{
	{"tasks", "idx_tasks_project_status", []string{"project_id", "status"}},
	{"tasks", "idx_tasks_assignee_status", []string{"assignee_id", "status"}},
	{"tasks", "idx_tasks_status_due_date", []string{"status", "due_date"}},
	{"project_members", "idx_project_members_user_role", []string{"user_id", "role"}},
	{"project_members", "idx_project_members_project_role", []string{"project_id", "role"}},
}

// AddIndexes adds the composite indexes AutoMigrate cannot express per field.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Debug("created index", "index", idx.name, "table", idx.table)
	}

	return nil
}
