package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
	"github.com/hekima/shindano/services/captcha"
	"github.com/hekima/shindano/services/email"
	"github.com/hekima/shindano/storage/database/dummy"
)

func newTestService(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := user.NewService(repo, mailSvc, captchasvc.NewInsecureVerifier(), core.Conf)
	return svc, repo
}

func createUser(t *testing.T, repo user.Repository, uname, email, pwd string, hasEmailAuth bool) user.User {
	t.Helper()

	usr := user.User{
		Username:     uname,
		Email:        email,
		AdminType:    user.RegularUser,
		HasEmailAuth: hasEmailAuth,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func Test_Service_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	active := createUser(t, repo, "hero", "hero@skku.edu", "s3cret", true)
	createUser(t, repo, "newkid", "newkid@skku.edu", "s3cret", false)

	disabled := createUser(t, repo, "banned", "banned@skku.edu", "s3cret", true)
	disabled.IsDisabled = true
	if _, err := repo.UpdateUser(ctx, disabled); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  string
	}{
		{"unknown user", "ghost", "s3cret", "Invalid username or password"},
		{"wrong password", "hero", "nope", "Invalid username or password"},
		{"disabled account", "banned", "s3cret", "Your account has been disabled"},
		{"email not authenticated", "newkid", "s3cret", "Your need to authenticate your email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.username, tt.password)
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	t.Run("success records last login", func(t *testing.T) {
		usr, err := svc.Authenticate(ctx, "  HERO  ", "s3cret") // username is cleaned
		require.NoError(t, err)
		assert.Equal(t, active.ID, usr.ID)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_Service_Register(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	createUser(t, repo, "taken", "taken@skku.edu", "s3cret", true)

	data := func(uname, email string) user.Register {
		return user.Register{
			Username: uname,
			Email:    email,
			Major:    "CS",
			Password: "s3cret",
			Captcha:  "abcd",
		}
	}

	t.Run("disabled by admin", func(t *testing.T) {
		_, err := svc.Register(ctx, data("hero", "hero@skku.edu"), false)
		assert.EqualError(t, err, "Register function has been disabled by admin")
	})

	t.Run("bad captcha", func(t *testing.T) {
		d := data("hero", "hero@skku.edu")
		d.Captcha = ""
		_, err := svc.Register(ctx, d, true)
		assert.EqualError(t, err, "Invalid captcha")
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, data("taken", "other@skku.edu"), true)
		assert.EqualError(t, err, "Username already exists")
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, data("other", "taken@skku.edu"), true)
		assert.EqualError(t, err, "Email already exists")
	})

	t.Run("success", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		usr, err := svc.Register(ctx, data("hero", "hero@g.skku.edu"), true)
		require.NoError(t, err)
		assert.Equal(t, user.RegularUser, usr.AdminType)
		assert.Equal(t, "G", usr.School) // derived from the email domain
		assert.False(t, usr.HasEmailAuth)
		assert.NotEmpty(t, usr.EmailAuthToken)

		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "hero@g.skku.edu", msg.To[0].Address)
		assert.True(t, strings.Contains(msg.TextContent, usr.EmailAuthToken))
	})
}

func Test_Service_AuthenticateEmail(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	usr := createUser(t, repo, "newkid", "newkid@skku.edu", "s3cret", false)
	usr.EmailAuthToken = "tok-123"
	if _, err := repo.UpdateUser(ctx, usr); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.AuthenticateEmail(ctx, "nope")
		assert.EqualError(t, err, "Token does not exist")
	})

	t.Run("success activates and burns the token", func(t *testing.T) {
		activated, err := svc.AuthenticateEmail(ctx, "tok-123")
		require.NoError(t, err)
		assert.True(t, activated.HasEmailAuth)
		assert.Empty(t, activated.EmailAuthToken)

		_, err = svc.AuthenticateEmail(ctx, "tok-123")
		assert.EqualError(t, err, "Token does not exist")
	})
}
