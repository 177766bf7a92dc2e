package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Report types supported by the reporting subsystem.
const (
	ReportTypeOrders    = "orders"
	ReportTypeEmployees = "employees"
	ReportTypeFinance   = "finance"
)

// Report lifecycle statuses.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// ReportFormatCSV is the only supported output format.
const ReportFormatCSV = "CSV"

// Report represents a generated report
type Report struct {
	ID             uint           `json:"id" gorm:"primarykey"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	ReportType     string         `json:"report_type" gorm:"size:32;not null"`
	PeriodFrom     *time.Time     `json:"period_from,omitempty" gorm:"type:date"`
	PeriodTo       *time.Time     `json:"period_to,omitempty" gorm:"type:date"`
	Format         string         `json:"format" gorm:"size:16;not null;default:'CSV'"`
	Grouping       string         `json:"grouping" gorm:"size:64"`
	Status         string         `json:"status" gorm:"size:16;not null;default:'processing'"`
	File           string         `json:"file,omitempty" gorm:"size:255"`
	Params         JSON           `json:"params,omitempty" gorm:"type:jsonb"`
	RecipientEmail string         `json:"recipient_email,omitempty" gorm:"size:255"`
}

// JSON is a custom type for handling JSONB data
type JSON map[string]interface{}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	return json.Unmarshal(bytes, j)
}

// Int reads an integer value from the bag; numbers loaded from jsonb
// arrive as float64.
func (j JSON) Int(key string) (int, bool) {
	switch v := j[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// TableName specifies the table name for the Report model
func (Report) TableName() string {
	return "reports"
}

// IsReady returns true if the report has been generated successfully
func (r *Report) IsReady() bool {
	return r.Status == StatusReady
}

// IsFailed returns true if the last generation attempt failed
func (r *Report) IsFailed() bool {
	return r.Status == StatusError
}

// HasFile returns true if a generated artifact is attached to the report
func (r *Report) HasFile() bool {
	return r.File != ""
}
