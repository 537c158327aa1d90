package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// serialType maps the driver to its auto-increment primary key column type.
// The schema templates use the {{serial}} token so one migration list serves
// both drivers.
func serialType(driver string) string {
	if driver == "sqlite3" {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

// GetMigrations returns all schema migrations for the given driver
func GetMigrations(driver string) []Migration {
	migrations := []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id {{serial}},
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255) NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					role VARCHAR(20) NOT NULL,
					password_hash TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
				CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
			`,
		},
		{
			Version:     2,
			Description: "Create projects table",
			SQL: `
				CREATE TABLE IF NOT EXISTS projects (
					id {{serial}},
					name VARCHAR(255) NOT NULL,
					description TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'active',
					owner_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);
				CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
			`,
		},
		{
			Version:     3,
			Description: "Create tickets table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tickets (
					id {{serial}},
					project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					description TEXT,
					priority VARCHAR(10) NOT NULL DEFAULT 'med',
					status VARCHAR(20) NOT NULL DEFAULT 'open',
					assignee_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_tickets_project_id ON tickets(project_id);
				CREATE INDEX IF NOT EXISTS idx_tickets_assignee_id ON tickets(assignee_id);
				CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
			`,
		},
		{
			Version:     4,
			Description: "Create audit_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id {{serial}},
					action VARCHAR(50) NOT NULL,
					table_name VARCHAR(100) NOT NULL,
					record_id BIGINT,
					user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					payload TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_table_name ON audit_logs(table_name);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
			`,
		},
	}

	serial := serialType(driver)
	for i := range migrations {
		migrations[i].SQL = strings.ReplaceAll(migrations[i].SQL, "{{serial}}", serial)
	}
	return migrations
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations(driver) {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
