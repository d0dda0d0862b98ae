package entity

import "time"

// MaterialRequest 物料申请
type MaterialRequest struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	ProjectID         string     `json:"project_id" gorm:"size:32;not null;index:idx_request_project_status"`
	MaterialID        string     `json:"material_id" gorm:"size:64;not null;index"`
	RequestedQuantity int        `json:"requested_quantity" gorm:"not null"`
	AssignedQuantity  int        `json:"assigned_quantity" gorm:"not null;default:0"` // 各配送分配数量之和
	DriverID          *string    `json:"driver_id" gorm:"size:32"`                    // 最近一次分配的司机
	RequestDate       time.Time  `json:"request_date"`
	DeliveryDate      *time.Time `json:"delivery_date"`
	Status            string     `json:"status" gorm:"size:30;not null;index:idx_request_project_status"`
	RequestedBy       string     `json:"requested_by" gorm:"size:32"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (MaterialRequest) TableName() string {
	return "material_requests"
}

// DeliveryAssignment 配送分配：司机承诺在指定日期配送申请的部分或全部数量
type DeliveryAssignment struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	MaterialRequestID string    `json:"material_request_id" gorm:"size:32;not null;index"`
	DriverID          string    `json:"driver_id" gorm:"size:32;not null;index"`
	AssignedQuantity  int       `json:"assigned_quantity" gorm:"not null"`
	DeliveryDate      time.Time `json:"delivery_date"`
	Status            string    `json:"status" gorm:"size:30;not null"`
	AssignedBy        string    `json:"assigned_by" gorm:"size:32"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (DeliveryAssignment) TableName() string {
	return "delivery_assignments"
}

// DeliveryHistory 配送完成记录，分配流转到 SENT 时写入
type DeliveryHistory struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	AssignmentID      string    `json:"assignment_id" gorm:"size:32;not null;uniqueIndex"`
	MaterialRequestID string    `json:"material_request_id" gorm:"size:32;not null;index"`
	DriverID          string    `json:"driver_id" gorm:"size:32;not null;index"`
	DeliveredQuantity int       `json:"delivered_quantity"`
	DeliveredAt       time.Time `json:"delivered_at"`
}

func (DeliveryHistory) TableName() string {
	return "delivery_histories"
}
