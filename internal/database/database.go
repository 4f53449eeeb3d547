package database

import (
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// OpenDB initializes and returns the connection pool.
// It reads the DSN from the BLOG_DB_DSN environment variable, falling
// back to a local development database.
func OpenDB() (*sql.DB, error) {
	dsn := os.Getenv("BLOG_DB_DSN")
	if dsn == "" {
		// parseTime=true is required so DATETIME columns scan into time.Time.
		dsn = "root:root@tcp(127.0.0.1:3306)/blogview?parseTime=true"
	}

	// Delegate the rest of the setup to the generic function
	return OpenDBWithDSN(dsn)
}

// OpenDBWithDSN creates and configures a DB connection pool
// using any provided DSN string.
func OpenDBWithDSN(dsn string) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping the database to verify the connection.
	err = db.Ping()
	if err != nil {
		log.Printf("Error connecting to database: %v", err)
		return nil, err
	}

	log.Println("Database connection pool established successfully")
	return db, nil
}
