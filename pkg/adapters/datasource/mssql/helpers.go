package mssql

import (
	"fmt"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"
)

// parseSchemaTable parses a table name that may include schema.
// SQL Server format: [schema].[table] or schema.table
// Returns (schema, table). Defaults to "dbo" schema if not specified.
func parseSchemaTable(tableName string) (string, string) {
	// Remove brackets if present
	cleaned := strings.ReplaceAll(tableName, "[", "")
	cleaned = strings.ReplaceAll(cleaned, "]", "")

	parts := strings.Split(cleaned, ".")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}

	// Default schema is "dbo" in SQL Server
	return "dbo", cleaned
}

// quoteName quotes an identifier the way QUOTENAME() does: square brackets,
// with ] escaped as ]].
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// buildFullyQualifiedName builds a fully qualified table name: [schema].[table]
func buildFullyQualifiedName(schema, table string) string {
	return fmt.Sprintf("%s.%s", quoteName(schema), quoteName(table))
}

// isStringType returns true if the type is a string type in SQL Server.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

// isDecimalType returns true for exact numeric types the driver returns as text bytes.
func isDecimalType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return true
	}
	return false
}

// normalizeValue converts driver-specific representations into plain Go
// values: text and exact numerics from []byte to string, GUIDs to their
// canonical string form. Temporal values are left as time.Time.
func normalizeValue(val any, dbType string) any {
	b, ok := val.([]byte)
	if !ok {
		return val
	}

	switch {
	case isStringType(dbType), isDecimalType(dbType):
		return string(b)
	case strings.EqualFold(dbType, "UNIQUEIDENTIFIER"):
		var id mssqldb.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}
	}
	return val
}
