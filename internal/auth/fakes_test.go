package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	groupentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/mailer"
	permentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

const testSecret = "test-secret"

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*entity.User
	err   error
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*entity.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetActiveByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("not found")
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("not found")
	}
	u.Password = hash
	return nil
}

type fakeGroups struct {
	byUser map[int64][]groupentity.Group
	calls  int
	err    error
}

func (f *fakeGroups) ListForUser(_ context.Context, userID int64) ([]groupentity.Group, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func group(id int64, codes ...string) groupentity.Group {
	g := groupentity.Group{ID: id, Name: "group"}
	for i, c := range codes {
		g.Permissions = append(g.Permissions, permentity.Permission{ID: int64(i + 1), Code: c, Name: c})
	}
	return g
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) error {
	f.sent = append(f.sent, m)
	return f.err
}

var errStore = errors.New("store down")

func testConfig() Config {
	return Config{
		SecretKey:       testSecret,
		TokenDays:       1,
		RecoveryTTL:     time.Hour,
		BcryptCost:      bcrypt.MinCost,
		RecoveryURL:     "https://app.example.com/recover",
		MailSender:      "no-reply@example.com",
		RecoverySubject: "Password recovery",
	}
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(pw)
	require.NoError(t, err)
	return h
}

// fixture wires the whole package against in-memory fakes.
type fixture struct {
	cfg      Config
	users    *fakeUsers
	groups   *fakeGroups
	mail     *fakeMailer
	codec    *TokenCodec
	resolver *Resolver
	gate     *Gate
	svc      *Service
}

func newFixture(t *testing.T, users ...*entity.User) *fixture {
	t.Helper()
	cfg := testConfig()
	f := &fixture{
		cfg:    cfg,
		users:  newFakeUsers(users...),
		groups: &fakeGroups{byUser: map[int64][]groupentity.Group{}},
		mail:   &fakeMailer{},
		codec:  NewTokenCodec(cfg),
	}
	logger := zap.NewNop().Sugar()
	f.resolver = NewResolver(f.groups)
	f.gate = NewGate(f.codec, f.users, f.resolver, logger)
	f.svc = NewService(cfg, f.users, NewBcryptHasher(cfg), f.codec, f.resolver, f.mail, logger)
	return f
}
