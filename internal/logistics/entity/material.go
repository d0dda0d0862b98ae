package entity

import "time"

// Material 物料
type Material struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"` // 物料编码，由导入或录入指定
	Name      string    `json:"name" gorm:"size:200;not null"`
	Unit      string    `json:"unit" gorm:"size:20"`
	Quantity  int       `json:"quantity" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Material) TableName() string {
	return "materials"
}
