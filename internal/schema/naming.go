package schema

import (
	"strings"
	"unicode"
)

// PrimaryKeyColumn is the reserved physical column for identifier fields.
const PrimaryKeyColumn = "_id"

// ColumnName derives the physical column name for a field identifier:
// "id" (any case) maps to PrimaryKeyColumn, everything else to snake_case.
func ColumnName(identifier string) string {
	if strings.EqualFold(identifier, "id") {
		return PrimaryKeyColumn
	}
	return SnakeCase(identifier)
}

// SnakeCase converts a camelCase or PascalCase identifier to snake_case.
// Runs of capitals are kept together ("userID" -> "user_id",
// "HTTPServer" -> "http_server").
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
