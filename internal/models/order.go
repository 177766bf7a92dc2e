package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses used by the order workflow actions.
const (
	OrderStatusNew      = "new"
	OrderStatusReady    = "ready"
	OrderStatusCanceled = "canceled"
)

// Order represents a customer order
type Order struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Number      string          `json:"number" gorm:"size:32;uniqueIndex;not null"`
	Date        time.Time       `json:"date" gorm:"type:date;not null"`
	ClientID    uint            `json:"client_id" gorm:"not null"`
	Client      Client          `json:"client,omitempty"`
	Department  string          `json:"department" gorm:"size:128"`
	ManagerID   uint            `json:"manager_id" gorm:"not null"`
	Manager     Employee        `json:"manager,omitempty"`
	Status      string          `json:"status" gorm:"size:64;not null;default:'new'"`
	Priority    string          `json:"priority" gorm:"size:32;default:'Обычный'"`
	OrderType   string          `json:"order_type" gorm:"size:64;default:'Поставка оборудования'"`
	PlannedDate *time.Time      `json:"planned_date,omitempty" gorm:"type:date"`
	AmountTotal decimal.Decimal `json:"amount_total" gorm:"type:decimal(16,2);not null;default:0"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents a single product line within an order
type OrderItem struct {
	ID      uint            `json:"id" gorm:"primarykey"`
	OrderID uint            `json:"order_id" gorm:"index;not null"`
	Name    string          `json:"name" gorm:"size:255;not null"`
	Qty     decimal.Decimal `json:"qty" gorm:"type:decimal(12,3);not null"`
	Unit    string          `json:"unit" gorm:"size:32;default:'шт'"`
	Price   decimal.Decimal `json:"price" gorm:"type:decimal(16,2);not null"`
	Amount  decimal.Decimal `json:"amount" gorm:"type:decimal(16,2);not null"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusDict maps internal order status codes to display names
type OrderStatusDict struct {
	ID      uint   `json:"id" gorm:"primarykey"`
	Value   string `json:"value" gorm:"size:64;uniqueIndex;not null"`
	Display string `json:"display" gorm:"size:64;not null"`
}

// TableName specifies the table name for the OrderStatusDict model
func (OrderStatusDict) TableName() string {
	return "order_status_dict"
}
