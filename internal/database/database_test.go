package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaintenanceDSN(t *testing.T) {
	tests := []struct {
		dsn   string
		admin string
		name  string
		ok    bool
	}{
		{"postgres://app:pw@db:5432/gelato?sslmode=disable", "postgres://app:pw@db:5432/postgres?sslmode=disable", "gelato", true},
		{"postgresql://db/gelato", "postgresql://db/postgres", "gelato", true},
		{"postgres://db/postgres", "", "", false},
		{"postgres://db", "", "", false},
		{"host=db dbname=gelato", "", "", false},
	}
	for _, tt := range tests {
		admin, name, ok := maintenanceDSN(tt.dsn)
		assert.Equal(t, tt.ok, ok, tt.dsn)
		assert.Equal(t, tt.admin, admin, tt.dsn)
		assert.Equal(t, tt.name, name, tt.dsn)
	}
}
