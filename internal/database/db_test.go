package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := Config{User: "api", Pass: "s3cret", Host: "db", Port: "3306", Name: "studentsadda"}
	assert.Equal(t,
		"api:s3cret@tcp(db:3306)/studentsadda?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.dsn())

	cfg.Pass = ""
	assert.Equal(t,
		"api@tcp(db:3306)/studentsadda?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.dsn())
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 25, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)

	tuned := Config{MaxOpenConns: 10, MaxIdleConns: 4, ConnMaxLifetime: time.Hour}.withDefaults()
	assert.Equal(t, 10, tuned.MaxOpenConns)
	assert.Equal(t, 4, tuned.MaxIdleConns)
	assert.Equal(t, time.Hour, tuned.ConnMaxLifetime)
}
