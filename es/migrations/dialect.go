package migrations

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect identifies the SQL flavor DDL is rendered for.
type Dialect string

const (
	// Postgres renders PostgreSQL DDL.
	Postgres Dialect = "postgres"
	// MySQL renders MySQL/MariaDB DDL.
	MySQL Dialect = "mysql"
	// SQLite renders SQLite DDL.
	SQLite Dialect = "sqlite"
)

// ParseDialect validates a dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q (supported: postgres, mysql, sqlite)", name)
	}
}

// Partition column names. They are shared by every dialect.
const (
	ColumnAggregateID = "AggregateId"
	ColumnRevision    = "Revision"
	ColumnTimestamp   = "Timestamp"
	ColumnData        = "Data"
)

// QuoteIdentifier quotes a table or database name.
// Partition names contain '+' and '/', so they must always be quoted.
func (d Dialect) QuoteIdentifier(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case Postgres:
		return pq.QuoteIdentifier(name)
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// MaxIdentifierLength returns the longest table name in bytes the engine keeps intact,
// or 0 when names are not bounded. PostgreSQL truncates longer names; MySQL rejects them.
func (d Dialect) MaxIdentifierLength() int {
	switch d {
	case Postgres:
		return 63
	case MySQL:
		return 64
	default:
		return 0
	}
}

// CreatePartitionSQL returns the idempotent DDL creating one partition table.
// The primary key (AggregateId, Revision) is the optimistic concurrency guard.
func (d Dialect) CreatePartitionSQL(table string) string {
	q := d.QuoteIdentifier
	switch d {
	case Postgres:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s TEXT NOT NULL,
    %s INTEGER NOT NULL,
    %s BIGINT NOT NULL,
    %s BYTEA NOT NULL,
    PRIMARY KEY (%s, %s)
)`, q(table),
			q(ColumnAggregateID), q(ColumnRevision), q(ColumnTimestamp), q(ColumnData),
			q(ColumnAggregateID), q(ColumnRevision))
	case MySQL:
		// ascii_bin keeps base64 identities case-sensitive
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s VARCHAR(400) CHARACTER SET ascii COLLATE ascii_bin NOT NULL,
    %s INT NOT NULL,
    %s BIGINT NOT NULL,
    %s LONGBLOB NOT NULL,
    PRIMARY KEY (%s, %s)
) ENGINE=InnoDB`, q(table),
			q(ColumnAggregateID), q(ColumnRevision), q(ColumnTimestamp), q(ColumnData),
			q(ColumnAggregateID), q(ColumnRevision))
	default:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s TEXT NOT NULL,
    %s INTEGER NOT NULL,
    %s INTEGER NOT NULL,
    %s BLOB NOT NULL,
    PRIMARY KEY (%s, %s)
) WITHOUT ROWID`, q(table),
			q(ColumnAggregateID), q(ColumnRevision), q(ColumnTimestamp), q(ColumnData),
			q(ColumnAggregateID), q(ColumnRevision))
	}
}

// DropPartitionSQL returns the DDL dropping one partition table.
// It is meant for maintenance and tests only.
func (d Dialect) DropPartitionSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdentifier(table)
}

// InsertSQL returns the single-row insert statement for a partition.
func (d Dialect) InsertSQL(table string) string {
	q := d.QuoteIdentifier
	return fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (%s)",
		q(table), q(ColumnAggregateID), q(ColumnRevision), q(ColumnTimestamp), q(ColumnData),
		d.placeholders(4))
}

// LoadSQL returns the query reading the revisions and payloads of one aggregate in revision order.
func (d Dialect) LoadSQL(table string) string {
	q := d.QuoteIdentifier
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = %s ORDER BY %s ASC",
		q(ColumnRevision), q(ColumnData), q(table), q(ColumnAggregateID), d.placeholders(1), q(ColumnRevision))
}

func (d Dialect) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if d == Postgres {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}
