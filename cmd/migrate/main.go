// Command migrate applies schema.sql to the configured MySQL database.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	schemaFlag := flag.String("schema", "schema.sql", "path to the schema file")
	flag.Parse()

	_ = godotenv.Load()

	user := envOr("DB_USER", "root")
	pass := os.Getenv("DB_PASS")
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "3306")
	name := envOr("DB_NAME", "studentsadda")

	// multiStatements lets the whole schema run in one Exec.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		user, pass, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	schema, err := os.ReadFile(*schemaFlag)
	if err != nil {
		log.Fatalf("read schema file: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Printf("schema %s applied to %s", *schemaFlag, name)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
