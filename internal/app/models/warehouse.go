package models

import "time"

// Transaction is a read-only purchase history row.
type Transaction struct {
	ID               uint64    `gorm:"primaryKey;column:ID" json:"id"`
	TransactionDate  time.Time `gorm:"column:TRANSACTION_DATE" json:"transaction_date"`
	ProductDimension string    `gorm:"column:PRODUCT_DIMENSION" json:"product_dimension"`
	Store            string    `gorm:"column:STORE" json:"store"`
	Quantity         int       `gorm:"column:QUANTITY" json:"quantity"`
	Amount           float64   `gorm:"column:AMOUNT" json:"amount"`
}

func (Transaction) TableName() string {
	return "TRANSACTION"
}

// WebsiteImage maps a page slot (BANNER, LOGO, ...) to a staged image.
type WebsiteImage struct {
	ID          uint64 `gorm:"primaryKey;column:ID" json:"id"`
	Description string `gorm:"column:DESCRIPTION" json:"description"`
	ImageName   string `gorm:"column:IMAGE_NAME" json:"image_name"`
	StagePath   string `gorm:"column:STAGE_PATH" json:"stage_path"`
}

func (WebsiteImage) TableName() string {
	return "WEBSITE_IMAGES"
}

// APICredential holds third party keys kept in the warehouse.
type APICredential struct {
	Name       string `gorm:"primaryKey;column:NAME" json:"name"`
	APIKey     string `gorm:"column:API_KEY" json:"-"`
	EndpointID string `gorm:"column:ENDPOINT_ID" json:"endpoint_id"`
}

func (APICredential) TableName() string {
	return "API_CREDENTIALS"
}
