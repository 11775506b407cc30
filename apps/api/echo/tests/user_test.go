package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
	"github.com/hekima/shindano/services/email"
	"github.com/hekima/shindano/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "secr3t", user.RegularUser, true)
	disabled := testutil.CreateUser(t, usrRepo, "ndog", "ndog@test.cd", "secr3t", user.RegularUser, true)
	disabled.IsDisabled = true
	if _, err := usrRepo.UpdateUser(context.Background(), disabled); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	unauthed := testutil.CreateUser(t, usrRepo, "newbie", "newbie@test.cd", "secr3t", user.RegularUser, false)

	body := func(uname, pwd string) []byte {
		return marchallObj(t, user.Login{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "unknown user", body: body("lol", "secr3t"), wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, "Invalid username or password"),
		},
		{
			name: "wrong password", body: body(usr.Username, "nope"), wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, "Invalid username or password"),
		},
		{
			name: "disabled account", body: body(disabled.Username, "secr3t"), wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, "Your account has been disabled"),
		},
		{
			name: "email not authenticated", body: body(unauthed.Username, "secr3t"), wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, "Your need to authenticate your email"),
		},
		{
			name: "missing fields", body: body("", ""), wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login succeeds", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/login", body(usr.Username, "secr3t"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Error *string `json:"error"`
			Data  struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Nil(t, resp.Error)
		assert.NotEmpty(t, resp.Data.Token)
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	existing := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "secr3t", user.RegularUser, true)

	body := func(uname, email, captcha string) []byte {
		return marchallObj(t, user.Register{
			Username: uname,
			Email:    email,
			Major:    "Computer Science",
			Password: "secr3t",
			Captcha:  captcha,
		})
	}

	tests := []httpTest{
		{
			name: "register succeeds", body: body("newkid", "newkid@skku.edu", "abcd"),
			wantCode: http.StatusCreated, wantData: dataEnvelope(t, "Succeeded"),
		},
		{
			name: "username already exists", body: body(existing.Username, "other@test.cd", "abcd"),
			wantCode: http.StatusBadRequest, wantData: errEnvelope(t, "Username already exists"),
		},
		{
			name: "email already exists", body: body("other", existing.Email, "abcd"),
			wantCode: http.StatusBadRequest, wantData: errEnvelope(t, "Email already exists"),
		},
		{
			name: "missing captcha", body: body("other", "other@test.cd", ""),
			wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, map[string]string{"captcha": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()
			req, rec := newRequest(http.MethodPost, "/api/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("registration disabled", func(t *testing.T) {
		core.Conf.AllowRegister = false
		defer func() { core.Conf.AllowRegister = true }()

		req, rec := newRequest(http.MethodPost, "/api/register", body("locked", "locked@test.cd", "abcd"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: errEnvelope(t, "Register function has been disabled by admin"),
		}, rec)
	})

	t.Run("registration sends the auth email", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		req, rec := newRequest(http.MethodPost, "/api/register", body("mailme", "mailme@skku.edu", "abcd"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, emailsvc.SentMessages, 1)
		assert.Equal(t, "mailme@skku.edu", emailsvc.SentMessages[0].To[0].Address)
	})
}

func Test_userApi_emailAuth(t *testing.T) {
	app := setup(t)

	pending := testutil.CreateUser(t, usrRepo, "newbie", "newbie@test.cd", "secr3t", user.RegularUser, false)
	pending.EmailAuthToken = "tok-123"
	if _, err := usrRepo.UpdateUser(context.Background(), pending); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	body := func(token string) []byte {
		return marchallObj(t, user.EmailAuth{Token: token})
	}

	tests := []httpTest{
		{
			name: "unknown token", body: body("lol"), wantCode: http.StatusNotFound,
			wantData: errEnvelope(t, "Token does not exist"),
		},
		{
			name: "auth succeeds", body: body("tok-123"), wantCode: http.StatusOK,
			wantData: dataEnvelope(t, "Succeeded"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/email_auth", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("account can log in afterwards", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/login", marchallObj(t, user.Login{Username: "newbie", Password: "secr3t"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_profile(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "secr3t", user.RegularUser, true)

	tests := []httpTest{
		{name: "anonymous gets null", path: "/api/profile", wantCode: http.StatusOK, wantData: dataEnvelope(t, nil)},
		{
			name: "authenticated gets own profile", path: "/api/profile", token: getToken(t, usr),
			wantCode: http.StatusOK, wantData: dataEnvelope(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_logout(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "secr3t", user.RegularUser, true)

	tests := []httpTest{
		{
			name: "login required", path: "/api/logout", wantCode: http.StatusUnauthorized,
			wantData: errEnvelope(t, "Please login first"),
		},
		{
			name: "logout succeeds", path: "/api/logout", token: getToken(t, usr),
			wantCode: http.StatusOK, wantData: dataEnvelope(t, "Succeeded"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
