package repositories

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"shop-assistant/internal/app/models"
)

// WarehouseRepository reads the reference tables. It never writes.
type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

func (r *WarehouseRepository) ListTransactions(ctx context.Context, product string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	db := r.db.WithContext(ctx)
	if product != "" {
		db = db.Where("PRODUCT_DIMENSION = ?", product)
	}
	err := db.Order("TRANSACTION_DATE desc").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *WarehouseRepository) GetImage(ctx context.Context, description string) (*models.WebsiteImage, error) {
	var image models.WebsiteImage
	err := r.db.WithContext(ctx).Where("DESCRIPTION = ?", description).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *WarehouseRepository) GetCredential(ctx context.Context, name string) (*models.APICredential, error) {
	var cred models.APICredential
	err := r.db.WithContext(ctx).Where("NAME = ?", name).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Query runs a read-only statement and returns the rows as column maps.
// The statement runs in a read-only transaction; callers still screen it first.
func (r *WarehouseRepository) Query(ctx context.Context, statement string) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Raw(statement).Scan(&rows).Error
	}, &sql.TxOptions{ReadOnly: true})
	return rows, err
}
