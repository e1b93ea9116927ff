package main

import (
	"context"
	"os"

	"go-pharma-exchange/internal/config"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/pkg/database"
	"go-pharma-exchange/pkg/logger"

	"github.com/google/uuid"
)

// reset-password <email> <new-password> sets a pharmacy password and signs out its other sessions.
func main() {
	log := logger.GetLogger()
	if len(os.Args) != 3 {
		log.Fatal("usage: reset-password <email> <new-password>")
	}
	email, password := model.NormalizeEmail(os.Args[1]), os.Args[2]
	if len(password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	db, err := database.ConnectDB(database.Options{DSN: cfg.DatabaseURL}, log)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}

	ctx := context.Background()
	credentials := repository.NewCredentialRepo(db)

	cred, err := credentials.FindByEmail(ctx, email)
	if err != nil {
		log.WithError(err).WithField("email", email).Fatal("credential not found")
	}

	hash, err := model.HashPassword(password)
	if err != nil {
		log.WithError(err).Fatal("hash password")
	}
	if err := credentials.UpdatePassword(ctx, cred.ID, hash); err != nil {
		log.WithError(err).Fatal("update password")
	}
	if err := credentials.UpdateTokenVersion(ctx, cred.ID, uuid.NewString()); err != nil {
		log.WithError(err).Fatal("rotate token version")
	}

	log.WithField("pharmacy_id", cred.PharmacyID).Infof("password for %s has been reset", email)
}
