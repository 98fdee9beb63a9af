package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/apperr"
	groupentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/group/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// echoActor writes the id of the user the gate passed in.
func echoActor(w http.ResponseWriter, r *http.Request, actor *entity.User) {
	apperr.WriteJSON(w, http.StatusOK, map[string]int64{"actor": actor.ID})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperr.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func bearer(t *testing.T, codec *TokenCodec, u *entity.User) string {
	t.Helper()
	token, err := codec.Encode(u)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticate_Succeeds(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)

	rec := serve(f.gate.Authenticate(echoActor), bearer(t, f.codec, u))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actor":7}`, rec.Body.String())
}

func TestAuthenticate_Rejections(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)
	valid := bearer(t, f.codec, u)

	expiredCfg := testConfig()
	expiredCfg.TokenDays = 0
	expiredCfg.TokenSeconds = -1
	expired := bearer(t, NewTokenCodec(expiredCfg), u)

	cases := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing token"},
		{"no space", "no_space", http.StatusUnauthorized, "malformed authorization header"},
		{"three parts", valid + " extra", http.StatusUnauthorized, "malformed authorization header"},
		{"garbage token", "Bearer Invalidtoken", http.StatusUnauthorized, "invalid token"},
		{"tampered token", "Bearer " + tamper(valid[len("Bearer "):]), http.StatusUnauthorized, "invalid token"},
		{"expired token", expired, http.StatusUnauthorized, "expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := f.gate.Authenticate(func(http.ResponseWriter, *http.Request, *entity.User) { called = true })
			rec := serve(h, tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, message(t, rec))
			assert.False(t, called)
		})
	}
}

func TestAuthenticate_UnknownSubjectIsForbidden(t *testing.T) {
	f := newFixture(t)
	rec := serve(f.gate.Authenticate(echoActor), bearer(t, f.codec, &entity.User{ID: 99}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticate_DeactivatedUserIsForbidden(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)
	header := bearer(t, f.codec, u)

	u.Active = false
	rec := serve(f.gate.Authenticate(echoActor), header)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", message(t, rec))
}

func TestAuthenticate_ExpiredAccountIsForbidden(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	u := &entity.User{ID: 7, Active: true, Expiration: &past}
	f := newFixture(t, u)

	rec := serve(f.gate.Authenticate(echoActor), bearer(t, f.codec, u))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticate_StoreErrorIsInternal(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)
	header := bearer(t, f.codec, u)
	f.users.err = errStore

	rec := serve(f.gate.Authenticate(echoActor), header)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", message(t, rec))
}

func TestAuthorize_NoGroupsIsForbidden(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)

	rec := serve(f.gate.Authorize([]string{"LIST_USERS"}, echoActor), bearer(t, f.codec, u))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", message(t, rec))
}

func TestAuthorize_GroupPermissionGrants(t *testing.T) {
	u := &entity.User{ID: 7, Active: true}
	f := newFixture(t, u)
	f.groups.byUser[7] = []groupentity.Group{group(1, "LIST_USERS")}

	rec := serve(f.gate.Authorize([]string{"LIST_USERS"}, echoActor), bearer(t, f.codec, u))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorize_AdminBypasses(t *testing.T) {
	u := &entity.User{ID: 1, Active: true, Admin: true}
	f := newFixture(t, u)

	rec := serve(f.gate.Authorize([]string{"LIST_USERS", "DELETE_GROUP"}, echoActor), bearer(t, f.codec, u))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, f.groups.calls)
}

func TestAuthorize_DemotedAdminLosesOverride(t *testing.T) {
	u := &entity.User{ID: 1, Active: true, Admin: true}
	f := newFixture(t, u)
	header := bearer(t, f.codec, u)

	u.Admin = false
	rec := serve(f.gate.Authorize([]string{"LIST_USERS"}, echoActor), header)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorize_AuthenticatesFirst(t *testing.T) {
	f := newFixture(t)
	rec := serve(f.gate.Authorize([]string{"LIST_USERS"}, echoActor), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.groups.calls)
}
