package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Medicine represents one inventory item of the hospital pharmacy
type Medicine struct {
	ID          string          `json:"id" gorm:"primarykey;type:varchar(64)"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	BrandName   string          `json:"brand_name" gorm:"type:varchar(255)"`
	Category    Category        `json:"category" gorm:"type:varchar(32);not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Form        string          `json:"form" gorm:"type:varchar(64)"`
	Dosage      string          `json:"dosage" gorm:"type:varchar(64)"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	InStock     bool            `json:"in_stock" gorm:"default:true"`
	Position    int             `json:"-" gorm:"not null;default:0;comment:'Display order in the catalog'"`
}

// TableName pins the table used by the read-only catalog source
func (Medicine) TableName() string {
	return "medicines"
}

// Scan implements sql.Scanner so categories are stored by code
func (c *Category) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	case nil:
		return fmt.Errorf("%w: null", ErrUnknownCategory)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnknownCategory, value)
	}
}

// Value implements driver.Valuer
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return c.Code(), nil
}
