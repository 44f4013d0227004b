package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/service/inventory/domain"
)

// ProductModel is the database representation of a Product.
type ProductModel struct {
	SKU   string `gorm:"primaryKey;size:64"`
	Name  string `gorm:"size:255"`
	Price float64
	Qty   int
}

func (ProductModel) TableName() string {
	return "products"
}

// GormLedger is the MySQL StockLedger. The conditional decrement is a single
// guarded UPDATE, so concurrent reservations for the same SKU serialize at
// the row and the quantity can never go below zero.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) (*GormLedger, error) {
	if err := db.AutoMigrate(&ProductModel{}); err != nil {
		return nil, errors.Wrap(err, "migrate products table")
	}
	return &GormLedger{db: db}, nil
}

// OpenMySQL dials the shared MySQL instance.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func (l *GormLedger) Get(ctx context.Context, sku string) (*domain.Product, error) {
	var model ProductModel
	err := l.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnknownSKU
		}
		return nil, err
	}
	return toDomainProduct(&model), nil
}

func (l *GormLedger) Create(ctx context.Context, p *domain.Product) error {
	var count int64
	if err := l.db.WithContext(ctx).Model(&ProductModel{}).Where("sku = ?", p.SKU).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrDuplicateSKU
	}
	return l.db.WithContext(ctx).Create(toProductModel(p)).Error
}

func (l *GormLedger) Update(ctx context.Context, p *domain.Product) error {
	res := l.db.WithContext(ctx).Model(&ProductModel{}).Where("sku = ?", p.SKU).Updates(map[string]interface{}{
		"name":  p.Name,
		"price": p.Price,
		"qty":   p.Qty,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUnknownSKU
	}
	return nil
}

func (l *GormLedger) Decrement(ctx context.Context, sku string, qty int) error {
	res := l.db.WithContext(ctx).Model(&ProductModel{}).
		Where("sku = ? AND qty >= ?", sku, qty).
		Update("qty", gorm.Expr("qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing row from a lost race.
		var count int64
		if err := l.db.WithContext(ctx).Model(&ProductModel{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrUnknownSKU
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (l *GormLedger) Increment(ctx context.Context, sku string, qty int) error {
	res := l.db.WithContext(ctx).Model(&ProductModel{}).
		Where("sku = ?", sku).
		Update("qty", gorm.Expr("qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUnknownSKU
	}
	return nil
}

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{SKU: m.SKU, Name: m.Name, Price: m.Price, Qty: m.Qty}
}

func toProductModel(p *domain.Product) *ProductModel {
	return &ProductModel{SKU: p.SKU, Name: p.Name, Price: p.Price, Qty: p.Qty}
}
