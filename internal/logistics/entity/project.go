package entity

import "time"

// Project 工程项目
type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Address   string    `json:"address" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Materials []ProjectMaterial `json:"materials,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectMaterial 项目物料分配台账
type ProjectMaterial struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID        string    `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_project_material"`
	MaterialID       string    `json:"material_id" gorm:"size:64;not null;uniqueIndex:idx_project_material"`
	AssignedQuantity int       `json:"assigned_quantity" gorm:"not null;default:0"`
	QuantityUsed     int       `json:"quantity_used" gorm:"not null;default:0"` // 始终 <= AssignedQuantity
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (ProjectMaterial) TableName() string {
	return "project_materials"
}

// Remaining 剩余可用数量
func (pm *ProjectMaterial) Remaining() int {
	return pm.AssignedQuantity - pm.QuantityUsed
}
