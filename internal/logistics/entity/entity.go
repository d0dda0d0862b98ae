package entity

// AllModels 按依赖顺序返回全部模型，供迁移使用
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Material{},
		&Project{},
		&ProjectMaterial{},
		&MaterialRequest{},
		&DeliveryAssignment{},
		&DeliveryHistory{},
		&ActivityLog{},
	}
}
