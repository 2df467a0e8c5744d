package main

import (
	"github.com/sirupsen/logrus"

	"github.com/propertyregister/internal/config"
	"github.com/propertyregister/internal/db"
	"github.com/propertyregister/internal/store"
	"github.com/propertyregister/internal/web"
)

func main() {
	config.LoadEnv()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dbConn, err := db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	if err := dbConn.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	webConfig := web.ConfigFromEnv()
	server := web.NewServer(webConfig, store.NewPostgresStore(dbConn.DB), log)

	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
