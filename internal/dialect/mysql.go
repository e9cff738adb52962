package dialect

import (
	"fmt"
	"strings"
)

// MySQL renders SQL for MySQL and MariaDB. The store only opens SQLite
// databases; this dialect is used to compile queries for external execution.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) CaseInsensitive(expr string) string {
	return "LOWER(" + expr + ")"
}

func (MySQL) CastToNumber(expr string) string {
	return "CAST(" + expr + " AS DECIMAL(65,30))"
}

func (MySQL) StringMatch() string { return "LIKE" }

// Concat uses CONCAT; without PIPES_AS_CONCAT, || is logical OR in MySQL.
func (MySQL) Concat(parts ...string) string {
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}

func (MySQL) OrderBy(expr string) []string {
	return []string{
		fmt.Sprintf("CASE WHEN %s REGEXP '^-?[0-9]+(\\\\.[0-9]+)?$' THEN 0 ELSE 1 END", expr),
		"CAST(" + expr + " AS DECIMAL(65,30))",
		"LOWER(" + expr + ")",
	}
}
