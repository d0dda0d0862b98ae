package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
	"github.com/bitfantasy/ips-logistics/internal/logistics/sse"
	"github.com/bitfantasy/ips-logistics/internal/logistics/testutil"
	"github.com/bitfantasy/ips-logistics/internal/shared/security"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent chan sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func (m *recordingMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("expected a mail to be sent")
		return sentMail{}
	}
}

func (m *recordingMailer) assertNone(t *testing.T) {
	t.Helper()
	select {
	case mail := <-m.sent:
		t.Fatalf("unexpected mail to %s: %s", mail.to, mail.subject)
	case <-time.After(100 * time.Millisecond):
	}
}

type fakeArchive struct {
	puts []string
	size int64
}

func (a *fakeArchive) Put(_ context.Context, kind, filename string, r io.Reader, size int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.size = int64(len(data))
	name := kind + "/" + filename
	a.puts = append(a.puts, name)
	return name, nil
}

type testEnv struct {
	db     *gorm.DB
	svc    *Services
	mailer *recordingMailer
	hub    *sse.Hub
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mailer := &recordingMailer{sent: make(chan sentMail, 16)}
	hub := sse.NewHub(nil)

	tokens := security.NewTokenManager(security.TokenOptions{
		Secret:        testutil.JWTSecret,
		Issuer:        "ips-test",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
		ResetExpire:   15 * time.Minute,
	}, security.NewMemoryTokenStore())

	svc := NewServices(repository.NewRepositories(db), Dependencies{
		Hasher:   security.NewBcryptHasher(bcrypt.MinCost),
		Tokens:   tokens,
		Mailer:   mailer,
		Hub:      hub,
		ResetURL: "https://ips.example.com/reset",
	})
	return &testEnv{db: db, svc: svc, mailer: mailer, hub: hub}
}

func deliveryDate() time.Time {
	return time.Now().Add(48 * time.Hour).Truncate(time.Second)
}
