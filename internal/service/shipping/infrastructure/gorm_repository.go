package infrastructure

import (
	"context"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/service/shipping/domain"
)

// ShipmentModel carries a unique index on order_id: the idempotency invariant
// lives in the schema, not just in the consumer's existence check.
type ShipmentModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	OrderID        uint64 `gorm:"uniqueIndex"`
	Status         string `gorm:"size:64"`
	TrackingNumber string `gorm:"size:64"`
}

func (ShipmentModel) TableName() string {
	return "shipments"
}

type GormShipmentRepository struct {
	db *gorm.DB
}

func NewGormShipmentRepository(db *gorm.DB) (*GormShipmentRepository, error) {
	if err := db.AutoMigrate(&ShipmentModel{}); err != nil {
		return nil, errors.Wrap(err, "migrate shipments table")
	}
	return &GormShipmentRepository{db: db}, nil
}

func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func (r *GormShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	model := ShipmentModel{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Status:         string(s.Status),
		TrackingNumber: s.TrackingNumber,
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		var mysqlErr *mysqldriver.MySQLError
		// 1062: duplicate entry for the order_id unique index, meaning
		// another delivery (or instance) already created the shipment.
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return domain.ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID uint64) (*domain.Shipment, error) {
	var model ShipmentModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &domain.Shipment{
		ID:             model.ID,
		OrderID:        model.OrderID,
		Status:         domain.ShipmentStatus(model.Status),
		TrackingNumber: model.TrackingNumber,
	}, nil
}
