package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shop-assistant/internal/app/models"
	"shop-assistant/internal/app/repositories"
)

func openWarehouse(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDb, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDb.Close() })

	if err := db.AutoMigrate(&models.Transaction{}, &models.WebsiteImage{}, &models.APICredential{},
		&models.ChatMessageLog{}, &models.FeedbackLog{}); err != nil {
		t.Fatal(err)
	}
	rows := []models.Transaction{
		{ID: 1, TransactionDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ProductDimension: "Shoes", Store: "A", Quantity: 2, Amount: 120},
		{ID: 2, TransactionDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), ProductDimension: "Hats", Store: "B", Quantity: 1, Amount: 20},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.WebsiteImage{ID: 1, Description: "BANNER", ImageName: "banner.png"}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.APICredential{Name: "LANDINGAI", APIKey: "stored-key"}).Error; err != nil {
		t.Fatal(err)
	}
	return db
}

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT * FROM TRANSACTION", true},
		{"  with t as (select 1) select * from t;", true},
		{"-- top stores\nSELECT STORE FROM TRANSACTION", true},
		{"DELETE FROM TRANSACTION", false},
		{"SELECT 1; DROP TABLE TRANSACTION", false},
		{"WITH x AS (DELETE FROM TRANSACTION RETURNING *) SELECT * FROM x", false},
		{"SELECT * FROM t INTO OUTFILE '/tmp/x'", false},
		{"SELECT STORE INTO @store FROM TRANSACTION", false},
		{"WITH t AS (SELECT 1) SELECT * FROM t INTO DUMPFILE '/tmp/y'", false},
		{"CALL refresh_sales()", false},
		{"SELECT SLEEP(1); SET GLOBAL read_only = 0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReadOnly(tt.stmt); got != tt.want {
			t.Errorf("IsReadOnly(%q) = %v, want %v", tt.stmt, got, tt.want)
		}
	}
}

func TestWarehouseService(t *testing.T) {
	db := openWarehouse(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	svc := NewWarehouseService(repositories.NewWarehouseRepository(db), cache)
	ctx := context.Background()

	list, err := svc.ListTransactions(ctx, "", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != 2 {
		t.Errorf("unexpected transactions %+v", list)
	}

	image, err := svc.Image(ctx, "banner")
	if err != nil || image.ImageName != "banner.png" {
		t.Errorf("unexpected image %+v %v", image, err)
	}
	if _, err := svc.Image(ctx, "logo"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	stmt := "SELECT IMAGE_NAME FROM WEBSITE_IMAGES"
	first, err := svc.RunQuery(ctx, stmt)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || len(first.Rows) != 1 {
		t.Errorf("unexpected first result %+v", first)
	}
	second, err := svc.RunQuery(ctx, stmt)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || len(second.Rows) != 1 {
		t.Errorf("expected cached result, got %+v", second)
	}

	if _, err := svc.RunQuery(ctx, "DROP TABLE TRANSACTION"); !errors.Is(err, ErrNotReadOnly) {
		t.Errorf("expected ErrNotReadOnly, got %v", err)
	}
}

func TestWarehouseCredentialSource(t *testing.T) {
	db := openWarehouse(t)
	svc := NewWarehouseService(repositories.NewWarehouseRepository(db), nil)
	ctx := context.Background()

	key, err := svc.CredentialSource("configured", "LANDINGAI")(ctx)
	if err != nil || key != "configured" {
		t.Errorf("config key not preferred: %q %v", key, err)
	}
	key, err = svc.CredentialSource("", "LANDINGAI")(ctx)
	if err != nil || key != "stored-key" {
		t.Errorf("fallback key = %q %v", key, err)
	}
	if _, err := svc.CredentialSource("", "MISSING")(ctx); err == nil {
		t.Error("expected error for missing credential row")
	}
}
