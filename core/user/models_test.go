package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_User_password(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetPassword("s3cret"))

	assert.NoError(t, usr.CheckPassword("s3cret"))
	assert.Error(t, usr.CheckPassword("S3CRET"))
	assert.Error(t, usr.CheckPassword(""))
}

func Test_User_roles(t *testing.T) {
	tests := []struct {
		adminType string
		isAdmin   bool
		isSuper   bool
	}{
		{RegularUser, false, false},
		{Admin, true, false},
		{SuperAdmin, true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.adminType, func(t *testing.T) {
			usr := User{AdminType: tt.adminType}
			assert.Equal(t, tt.isAdmin, usr.IsAdminRole())
			assert.Equal(t, tt.isSuper, usr.IsSuperAdmin())
		})
	}
}

func Test_schoolFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jo@skku.edu", "SKKU"},
		{"jo@g.skku.edu", "G"},
		{"jo@example.com", "EXAMPLE"},
		{"not-an-email", ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, schoolFromEmail(tt.email))
		})
	}
}

func Test_Login_Validate(t *testing.T) {
	l := Login{Username: "  Hero  ", Password: "s3cret"}
	require.NoError(t, l.Validate())
	assert.Equal(t, "hero", l.Username) // cleaned and lowered

	assert.Error(t, (&Login{Password: "s3cret"}).Validate())
	assert.Error(t, (&Login{Username: "hero"}).Validate())
}

func Test_Register_Validate(t *testing.T) {
	valid := func() Register {
		return Register{
			Username: "hero",
			Email:    "HERO@skku.edu",
			Major:    "CS",
			Password: "s3cret",
			Captcha:  "abcd",
		}
	}

	t.Run("ok and normalized", func(t *testing.T) {
		r := valid()
		require.NoError(t, r.Validate())
		assert.Equal(t, "hero@skku.edu", r.Email)
	})

	t.Run("email format", func(t *testing.T) {
		r := valid()
		r.Email = "not-an-email"
		assert.Error(t, r.Validate())
	})

	t.Run("captcha required", func(t *testing.T) {
		r := valid()
		r.Captcha = ""
		assert.Error(t, r.Validate())
	})
}
