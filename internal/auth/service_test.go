package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	groupentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

func activeUser(t *testing.T, id int64, email, pw string) *entity.User {
	return &entity.User{
		ID:        id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  hashed(t, pw),
		Active:    true,
	}
}

func TestLogin_TokenSubjectIsUser(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "s3cret")
	f := newFixture(t, u)

	token, err := f.svc.Login(context.Background(), "ada@example.com", "s3cret")
	require.NoError(t, err)

	claims, err := f.codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
}

func TestLogin_NormalizesEmail(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	_, err := f.svc.Login(context.Background(), "  ADA@Example.com ", "s3cret")
	assert.NoError(t, err)
}

func TestLogin_WrongPasswordIsInvalidCredentials(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))

	_, err := f.svc.Login(context.Background(), "ada@example.com", "nope")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
	assert.Equal(t, "invalid login data", err.Error())
}

func TestLogin_UnknownEmailIsNotFound(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	_, err := f.svc.Login(context.Background(), "bob@example.com", "s3cret")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLogin_InactiveUserIsNotFound(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "s3cret")
	u.Active = false
	f := newFixture(t, u)
	_, err := f.svc.Login(context.Background(), "ada@example.com", "s3cret")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLogin_ExpiredAccountIsForbidden(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "s3cret")
	past := time.Now().Add(-time.Hour)
	u.Expiration = &past
	f := newFixture(t, u)

	_, err := f.svc.Login(context.Background(), "ada@example.com", "s3cret")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestStatus_IncludesSortedPermissions(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "s3cret")
	f := newFixture(t, u)
	f.groups.byUser[5] = []groupentity.Group{group(1, "VIEW_USER", "LIST_USERS"), group(2, "LIST_USERS")}

	view, err := f.svc.Status(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.ID)
	assert.Equal(t, "ada@example.com", view.Email)
	assert.False(t, view.Admin)
	assert.Equal(t, []string{"LIST_USERS", "VIEW_USER"}, view.Permissions)
}

func TestRecoverPassword_UnknownEmailSendsNothing(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	f.svc.RecoverPassword(context.Background(), "unexisting-ada@example.com")
	assert.Empty(t, f.mail.sent)
}

func TestRecoverPassword_SendsOneMail(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	f.svc.RecoverPassword(context.Background(), "Ada@Example.com")

	require.Len(t, f.mail.sent, 1)
	msg := f.mail.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, msg.To)
	assert.Equal(t, "no-reply@example.com", msg.From)
	assert.Equal(t, "Password recovery", msg.Subject)
	assert.Contains(t, msg.Body, "https://app.example.com/recover?token=")
}

func TestRecoverPassword_LinkCarriesRecoveryToken(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	f.svc.RecoverPassword(context.Background(), "ada@example.com")
	require.Len(t, f.mail.sent, 1)

	var link string
	for _, line := range strings.Split(f.mail.sent[0].Body, "\n") {
		if strings.HasPrefix(line, "https://") {
			link = line
		}
	}
	parsed, err := url.Parse(link)
	require.NoError(t, err)

	email, err := f.codec.DecodeRecovery(parsed.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestRecoverPassword_ExpiredAccountSendsNothing(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "s3cret")
	past := time.Now().Add(-time.Hour)
	u.Expiration = &past
	f := newFixture(t, u)

	f.svc.RecoverPassword(context.Background(), "ada@example.com")
	assert.Empty(t, f.mail.sent)
}

func TestRecoverPassword_SwallowsFailures(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "s3cret"))
	f.mail.err = errors.New("mailer down")
	assert.NotPanics(t, func() { f.svc.RecoverPassword(context.Background(), "ada@example.com") })
	assert.Len(t, f.mail.sent, 1)

	f.users.err = errStore
	assert.NotPanics(t, func() { f.svc.RecoverPassword(context.Background(), "ada@example.com") })
	assert.Len(t, f.mail.sent, 1)
}

func TestChangePassword(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "old")
	f := newFixture(t, u)
	token, err := f.codec.EncodeRecovery("ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.ChangePassword(context.Background(), token, "new-password"))

	_, err = f.svc.Login(context.Background(), "ada@example.com", "new-password")
	assert.NoError(t, err)
	_, err = f.svc.Login(context.Background(), "ada@example.com", "old")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
}

func TestChangePassword_RejectsAccessToken(t *testing.T) {
	u := activeUser(t, 5, "ada@example.com", "old")
	f := newFixture(t, u)
	access, err := f.codec.Encode(u)
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), access, "new-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Equal(t, "invalid token", err.Error())
}

func TestChangePassword_ExpiredToken(t *testing.T) {
	f := newFixture(t, activeUser(t, 5, "ada@example.com", "old"))
	token, err := f.codec.EncodeRecovery("ada@example.com")
	require.NoError(t, err)

	f.codec.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = f.svc.ChangePassword(context.Background(), token, "new-password")
	assert.Equal(t, "expired token", err.Error())
}

func TestChangePassword_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	token, err := f.codec.EncodeRecovery("ghost@example.com")
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), token, "new-password")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
