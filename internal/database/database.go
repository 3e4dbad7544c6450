package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens dsn, creating the database first when the server does not
// have it yet. Schema migrations belong to the caller.
func Connect(dsn string) (*gorm.DB, error) {
	if err := createIfMissing(dsn); err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// maintenanceDSN points dsn at the server's postgres database and returns
// the name of the database it originally targeted.
func maintenanceDSN(dsn string) (string, string, bool) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return "", "", false
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", false
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return "", "", false
	}
	u.Path = "/postgres"
	return u.String(), name, true
}

func createIfMissing(dsn string) error {
	admin, name, ok := maintenanceDSN(dsn)
	if !ok {
		return nil
	}

	conn, err := sql.Open("postgres", admin)
	if err != nil {
		return err
	}
	defer conn.Close()

	var exists bool
	err = conn.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil || exists {
		return err
	}

	log.Printf("[Database] creating database %s", name)
	_, err = conn.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name))
	return err
}
