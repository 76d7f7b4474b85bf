// Package mssql provides the Microsoft SQL Server driver implementation.
// It registers itself with the driver registry on import.
package mssql

import (
	"github.com/johndauphine/db-utility/internal/driver"
	_ "github.com/microsoft/go-mssqldb" // database/sql driver "sqlserver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQL Server databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mssql"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlserver", "sqlsrv", "sql-server"}
}

// Defaults returns the default configuration values for SQL Server.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{Port: 1433}
}

func (d *Driver) SQLDriverName() string {
	return "sqlserver"
}

// Dialect returns the SQL Server dialect.
func (d *Driver) Dialect() driver.Dialect {
	return &Dialect{}
}

// Introspector returns the SQL Server schema introspector.
func (d *Driver) Introspector() driver.Introspector {
	return &Introspector{dialect: &Dialect{}}
}
