package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/service/order/domain"
)

// OrderModel is the database representation of an Order. The items snapshot
// is stored as a JSON column, mirroring the append-only, never-mutated nature
// of the record.
type OrderModel struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	CustomerName string `gorm:"size:255"`
	TotalAmount  float64
	ItemsJSON    string `gorm:"type:json"`
	CreatedAt    time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) (*GormOrderRepository, error) {
	if err := db.AutoMigrate(&OrderModel{}); err != nil {
		return nil, errors.Wrap(err, "migrate orders table")
	}
	return &GormOrderRepository{db: db}, nil
}

func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	raw, err := json.Marshal(order.Items)
	if err != nil {
		return errors.Wrap(err, "marshal items snapshot")
	}
	model := OrderModel{
		CustomerName: order.CustomerName,
		TotalAmount:  order.TotalAmount,
		ItemsJSON:    string(raw),
		CreatedAt:    order.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	order.ID = model.ID
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	var items []domain.OrderItem
	if err := json.Unmarshal([]byte(model.ItemsJSON), &items); err != nil {
		return nil, errors.Wrap(err, "unmarshal items snapshot")
	}
	return &domain.Order{
		ID:           model.ID,
		CustomerName: model.CustomerName,
		TotalAmount:  model.TotalAmount,
		Items:        items,
		CreatedAt:    model.CreatedAt,
	}, nil
}
