// Package all registers every storage backend and the SQL Server driver.
//
// Import it for side effects from main packages:
//
//	import _ "reviewetl/internal/storage/all"
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "reviewetl/internal/storage/mssql"
	_ "reviewetl/internal/storage/postgres"
	_ "reviewetl/internal/storage/sqlite"
)
