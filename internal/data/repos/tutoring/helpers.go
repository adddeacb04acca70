package tutoring

import (
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// containsExpr returns a case-sensitive substring predicate for column.
// LIKE is case-insensitive for ASCII on SQLite, so instr is used there.
func containsExpr(db *gorm.DB, column string) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}
