package Models

import (
	"fmt"
	"log"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the configured database, migrates it and stores the handle in DB
func Connect(driver, dsn string) error {
	connection, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	if err := Migrate(connection); err != nil {
		return err
	}
	DB = connection
	log.Printf("Connected to %s database\n", driverName(driver))
	return nil
}

// Open returns a gorm handle for one of the supported drivers: sqlite, postgres or mysql
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driverName(driver) {
	case "sqlite":
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		// lib/pq registers itself as "postgres"
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn})
	case "mysql":
		cfg, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		dialector = mysql.Open(cfg.FormatDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	connection, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName(driver), err)
	}

	if driverName(driver) == "sqlite" {
		sqlDB, err := connection.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	return connection, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	// 1. Records with no dependencies
	if err := db.AutoMigrate(&User{}, &Customer{}, &Worker{}); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	// 2. Projects and everything hanging off them
	if err := db.AutoMigrate(
		&Project{},
		&ProjectImage{},
		&Agreement{},
		&Payment{},
		&Bill{},
		&Document{},
	); err != nil {
		return fmt.Errorf("failed to migrate project tables: %w", err)
	}

	// 3. Company profile uploads
	if err := db.AutoMigrate(&CompanyDocument{}, &CompanyImage{}); err != nil {
		return fmt.Errorf("failed to migrate company tables: %w", err)
	}

	// 4. Bill book
	if err := db.AutoMigrate(&Ledger{}, &LedgerEntry{}); err != nil {
		return fmt.Errorf("failed to migrate bill book tables: %w", err)
	}

	return nil
}

func driverName(driver string) string {
	if driver == "" {
		return "sqlite"
	}
	return strings.ToLower(driver)
}
