package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/modelkeeper/internal/admin"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/config"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/modelkeeper/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	app := admin.NewApp(
		services.NewAccountService(db, rm, auth.BcryptVerifier{}, nil),
		services.NewModelService(db, rm, nil),
		os.Stdin,
		os.Stdout,
	)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Printf("%v", err)
		db.Close()
		os.Exit(1)
	}

}
