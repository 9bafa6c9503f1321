package db

import (
	"database/sql"
	"log"

	"aircorr/config"

	_ "github.com/lib/pq"
)

func ConnectDB() *sql.DB {

	db, err := sql.Open("postgres", config.Dsn)
	if err != nil {
		log.Fatalf("DB open failed: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("DB ping failed: %v", err)
	}

	log.Println("PostgreSQL connected")
	return db
}
