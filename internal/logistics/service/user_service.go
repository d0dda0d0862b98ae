package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService 用户与司机目录
type UserService struct {
	repo   *repository.UserRepository
	db     *gorm.DB
	hasher security.PasswordHasher
	mail   *mailDispatcher
}

func NewUserService(repos *repository.Repositories, db *gorm.DB, hasher security.PasswordHasher, mail *mailDispatcher) *UserService {
	return &UserService{repo: repos.User, db: db, hasher: hasher, mail: mail}
}

type RegisterReq struct {
	Name     string `json:"name" binding:"required"`
	Mail     string `json:"mail"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Register 注册用户，密码哈希后保存；有邮箱时异步发送欢迎邮件
func (s *UserService) Register(ctx context.Context, req RegisterReq) (*entity.User, error) {
	user, err := s.register(ctx, s.repo, req)
	if err != nil {
		return nil, err
	}
	s.sendWelcome(user)
	return user, nil
}

// RegisterAll 批量注册，任一失败整体回滚
func (s *UserService) RegisterAll(ctx context.Context, reqs []RegisterReq) ([]entity.User, error) {
	if len(reqs) == 0 {
		return nil, validationf("用户列表不能为空")
	}
	users := make([]entity.User, 0, len(reqs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewUserRepository(tx)
		for i, req := range reqs {
			u, err := s.register(ctx, repo, req)
			if err != nil {
				return fmt.Errorf("第 %d 个用户: %w", i+1, err)
			}
			users = append(users, *u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range users {
		s.sendWelcome(&users[i])
	}
	return users, nil
}

func (s *UserService) register(ctx context.Context, repo *repository.UserRepository, req RegisterReq) (*entity.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("姓名不能为空")
	}
	if req.Password == "" {
		return nil, validationf("密码不能为空")
	}

	user := &entity.User{
		ID:    uuid.New().String()[:32],
		Name:  name,
		Phone: strings.TrimSpace(req.Phone),
		Role:  normalizeRole(req.Role),
	}
	if mail := normalizeMail(req.Mail); mail != "" {
		taken, err := repo.MailTaken(ctx, mail, "")
		if err != nil {
			return nil, fmt.Errorf("check mail: %w", err)
		}
		if taken {
			return nil, validationf("邮箱 %s 已被注册", mail)
		}
		user.Mail = &mail
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) sendWelcome(u *entity.User) {
	if s.mail == nil || u.Mail == nil {
		return
	}
	s.mail.dispatch(*u.Mail, "Welcome to IPS Manager",
		fmt.Sprintf("Hello %s,\n\nyour account has been created with role %q.\n", u.Name, u.Role))
}

// UpdateUserReq 局部更新，空字段不覆盖
type UpdateUserReq struct {
	Name     string `json:"name"`
	Mail     string `json:"mail"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *UserService) Update(ctx context.Context, id string, req UpdateUserReq) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "用户 %s 不存在", id)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if mail := normalizeMail(req.Mail); mail != "" && mail != user.MailAddress() {
		taken, err := s.repo.MailTaken(ctx, mail, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check mail: %w", err)
		}
		if taken {
			return nil, validationf("邮箱 %s 已被注册", mail)
		}
		user.Mail = &mail
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = phone
	}
	if role := strings.TrimSpace(req.Role); role != "" {
		user.Role = normalizeRole(role)
	}
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("用户 %s 不存在", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "用户 %s 不存在", id)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return items, nil
}

// ListDrivers 角色为 driver 的用户（忽略大小写）
func (s *UserService) ListDrivers(ctx context.Context) ([]entity.User, error) {
	items, err := s.repo.FindByRole(ctx, entity.RoleDriver)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return items, nil
}

func normalizeMail(mail string) string {
	return strings.ToLower(strings.TrimSpace(mail))
}

func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return entity.RoleWorker
	}
	return role
}
