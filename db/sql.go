package db

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sepalink/sepalink-go/config"
)

var dataDb *sql.DB
var dataDBOnce = &sync.Once{}

func GetDataDBConnection() *sql.DB {
	dataDBOnce.Do(func() {
		var err error
		dataDb, err = sql.Open("mysql", config.DATA_DB_URL)
		if err != nil {
			log.Fatal(err)
		}

		pingErr := dataDb.Ping()
		if pingErr != nil {
			log.Fatal(pingErr)
		}
	})

	return dataDb
}
