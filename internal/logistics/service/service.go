package service

import (
	"context"
	"io"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/logistics/sse"
	"github.com/bitfantasy/ips-logistics/internal/shared/mailer"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"go.uber.org/zap"
)

// Archiver 导入文件归档，未配置对象存储时为 nil
type Archiver interface {
	Put(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (string, error)
}

// Dependencies 进程启动时创建一次的外部协作者
type Dependencies struct {
	Hasher   security.PasswordHasher
	Tokens   *security.TokenManager
	Mailer   mailer.Mailer
	Hub      *sse.Hub
	Archive  Archiver
	Logger   *zap.Logger
	ResetURL string
}

// Services 服务集合
type Services struct {
	Material      *MaterialService
	Project       *ProjectService
	Allocation    *AllocationService
	Request       *RequestService
	Assignment    *AssignmentService
	User          *UserService
	Auth          *AuthService
	PasswordReset *PasswordResetService
	Import        *ImportService
	Report        *ReportService
	Activity      *ActivityService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, deps Dependencies) *Services {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Mailer == nil {
		deps.Mailer = mailer.NewLogMailer(deps.Logger)
	}
	db := repos.DB()
	n := &notifier{hub: deps.Hub}
	mail := &mailDispatcher{mailer: deps.Mailer, logger: deps.Logger}

	assignments := NewAssignmentService(repos, db, n, deps.Logger)
	users := NewUserService(repos, db, deps.Hasher, mail)

	return &Services{
		Material:      NewMaterialService(repos),
		Project:       NewProjectService(repos, db),
		Allocation:    NewAllocationService(repos, db, n),
		Request:       NewRequestService(repos, db, assignments, n),
		Assignment:    assignments,
		User:          users,
		Auth:          NewAuthService(NewPasswordAuthenticator(repos.User, deps.Hasher), deps.Tokens, repos.User),
		PasswordReset: NewPasswordResetService(repos.User, deps.Hasher, deps.Tokens, mail, deps.ResetURL),
		Import:        NewImportService(repos, db, deps.Archive, deps.Logger),
		Report:        NewReportService(repos),
		Activity:      NewActivityService(repos.ActivityLog),
	}
}

// notifier 推送 SSE 事件，hub 为 nil 时静默
type notifier struct {
	hub *sse.Hub
}

func (n *notifier) request(requestID, projectID, status, action string) {
	if n == nil || n.hub == nil {
		return
	}
	n.hub.PublishRequestUpdate(requestID, projectID, status, action)
}

func (n *notifier) assignment(assignmentID, requestID, driverID, status, action string) {
	if n == nil || n.hub == nil {
		return
	}
	n.hub.PublishAssignmentUpdate(assignmentID, requestID, driverID, status, action)
}

const mailTimeout = 30 * time.Second

// mailDispatcher 异步发信，失败只记日志，不影响调用方
type mailDispatcher struct {
	mailer mailer.Mailer
	logger *zap.Logger
}

func (d *mailDispatcher) dispatch(to, subject, body string) {
	if d == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := d.mailer.Send(ctx, to, subject, body); err != nil {
			d.logger.Warn("Failed to send mail", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

// today 当天零点
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
