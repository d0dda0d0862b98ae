package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Repositories 仓库集合
type Repositories struct {
	db          *gorm.DB
	Material    *MaterialRepository
	Project     *ProjectRepository
	Allocation  *AllocationRepository
	Request     *RequestRepository
	Assignment  *AssignmentRepository
	User        *UserRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合。事务内用 tx 构造一份即可让所有仓库共享同一事务。
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Material:    NewMaterialRepository(db),
		Project:     NewProjectRepository(db),
		Allocation:  NewAllocationRepository(db),
		Request:     NewRequestRepository(db),
		Assignment:  NewAssignmentRepository(db),
		User:        NewUserRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

// DB 返回底层连接
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// forUpdate 对支持行锁的方言追加 FOR UPDATE，SQLite 依赖库级写锁
func forUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
