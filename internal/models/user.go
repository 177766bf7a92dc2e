package models

import (
	"time"

	"gorm.io/gorm"
)

// Role defines a set of permission flags granted to a user
type Role struct {
	ID              uint   `json:"id" gorm:"primarykey"`
	Name            string `json:"name" gorm:"size:64;uniqueIndex;not null"`
	CanViewOrders   bool   `json:"can_view_orders" gorm:"default:true"`
	CanEditOrders   bool   `json:"can_edit_orders" gorm:"default:false"`
	CanDeleteOrders bool   `json:"can_delete_orders" gorm:"default:false"`
	CanViewReports  bool   `json:"can_view_reports" gorm:"default:true"`
	IsAdmin         bool   `json:"is_admin" gorm:"default:false"`
}

// TableName specifies the table name for the Role model
func (Role) TableName() string {
	return "roles"
}

// Employee represents a staff member who manages orders
type Employee struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	FullName   string `json:"full_name" gorm:"size:255;not null"`
	TabNumber  string `json:"tab_number" gorm:"size:32;uniqueIndex;not null"`
	Position   string `json:"position" gorm:"size:128"`
	Department string `json:"department" gorm:"size:128;index"`
	Phone      string `json:"phone" gorm:"size:32"`
	Email      string `json:"email" gorm:"size:255"`
	Status     string `json:"status" gorm:"size:64;default:'Активен'"`
}

// TableName specifies the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}

// Client represents a customer organization
type Client struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Name          string `json:"name" gorm:"size:255;uniqueIndex;not null"`
	ContactPerson string `json:"contact_person" gorm:"size:255"`
	Email         string `json:"email" gorm:"size:255"`
	Phone         string `json:"phone" gorm:"size:32"`
	Comment       string `json:"comment" gorm:"type:text"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
