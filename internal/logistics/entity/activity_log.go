package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 操作日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // material_request/delivery_assignment/project_material/user
	EntityID   string `json:"entity_id" gorm:"size:64;not null;index:idx_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/assign/status_change/use/deliver
	FromStatus string `json:"from_status" gorm:"size:30"`
	ToStatus   string `json:"to_status" gorm:"size:30"`

	Content  string         `json:"content" gorm:"type:text"`
	Metadata datatypes.JSON `json:"metadata"`

	OperatorID string    `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
