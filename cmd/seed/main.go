// Command seed provisions a local owner with a wallet and prints a bearer
// token for it. It never touches balances.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"kobo/internal/config"
	applogger "kobo/internal/logger"
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/ledger"
	"kobo/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "owner email (required)")
	name := flag.String("name", "", "owner display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadEnv()
	if *email == "" {
		log.Fatal("-email is required")
	}
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set in environment")
	}

	zl, err := applogger.New(config.GetEnv("ENV", "development"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := repositories.InitDB(config.LoadDBConfig(), zl)
	if err != nil {
		zl.Fatal("database initialization failed", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx := context.Background()
	store := repositories.NewStore(db)

	owner := uuid.New()
	var existing models.User
	if err := db.WithContext(ctx).Where("email = ?", *email).First(&existing).Error; err == nil {
		owner = existing.ID
	}
	if err := store.Users().Upsert(ctx, &models.User{ID: owner, Email: *email, Name: *name}); err != nil {
		zl.Fatal("failed to record owner", zap.Error(err))
	}

	svc := ledger.NewService(store, nil, ledger.Config{
		DefaultCurrency: config.GetEnv("DEFAULT_CURRENCY", ledger.DefaultCurrency),
	}, nil, zl)
	wallet, err := svc.EnsureWallet(ctx, owner)
	if err != nil {
		zl.Fatal("failed to provision wallet", zap.Error(err))
	}

	token, err := utils.GenerateToken(secret, &models.UserClaims{
		UserID:      owner.String(),
		Email:       *email,
		Permissions: models.GetDefaultPermissions(),
	}, *ttl)
	if err != nil {
		zl.Fatal("failed to sign token", zap.Error(err))
	}

	fmt.Printf("owner_id:      %s\n", owner)
	fmt.Printf("wallet_number: %s\n", wallet.WalletNumber)
	fmt.Printf("token:         %s\n", token)
}
