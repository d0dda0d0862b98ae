package repository

import (
	"context"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByMail(ctx context.Context, mail string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("mail = ?", mail).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// MailTaken 邮箱是否已被其他用户占用
func (r *UserRepository) MailTaken(ctx context.Context, mail, exceptID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.User{}).Where("mail = ?", mail)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var items []entity.User
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// FindByRole 角色匹配忽略大小写
func (r *UserRepository) FindByRole(ctx context.Context, role string) ([]entity.User, error) {
	var items []entity.User
	err := r.db.WithContext(ctx).
		Where("LOWER(role) = ?", strings.ToLower(role)).
		Order("name ASC").
		Find(&items).Error
	return items, err
}
