package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hekima/shindano/core"
)

// Admin types, in increasing order of capability.
const (
	RegularUser = "Regular User"
	Admin       = "Admin"
	SuperAdmin  = "Super Admin"
)

var AdminTypes = []string{RegularUser, Admin, SuperAdmin}

type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Major          string    `json:"major"`
	School         string    `json:"school"`
	AdminType      string    `json:"admin_type"`
	IsDisabled     bool      `json:"is_disabled"`
	HasEmailAuth   bool      `json:"has_email_auth"`
	EmailAuthToken string    `json:"-"`
	PasswordHash   []byte    `json:"-"`
	CreateTime     time.Time `json:"create_time"` // UTC
	LastLogin      time.Time `json:"last_login"`  // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsAdminRole reports whether the user holds any admin capability.
func (u User) IsAdminRole() bool {
	return u.AdminType == Admin || u.AdminType == SuperAdmin
}

// IsSuperAdmin reports whether the user bypasses ownership checks.
func (u User) IsSuperAdmin() bool {
	return u.AdminType == SuperAdmin
}

// PublicUser is the embeddable created_by representation.
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

// Login contains the credentials posted to the login endpoint.
type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate() error {
	l.Username = core.CleanString(l.Username, true /* lower */)
	return core.Validate.Struct(l)
}

// Register contains information needed to create a new account.
type Register struct {
	Username string `json:"username" validate:"required,max=32"`
	Email    string `json:"email" validate:"required,email,max=64"`
	Major    string `json:"major" validate:"required,max=128"`
	Password string `json:"password" validate:"required"`
	Captcha  string `json:"captcha" validate:"required"`
}

func (r *Register) Validate() error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Major = core.CleanString(r.Major)
	return core.Validate.Struct(r)
}

// EmailAuth carries the token mailed to a fresh account.
type EmailAuth struct {
	Token string `json:"token" validate:"required"`
}

func (ea *EmailAuth) Validate() error { return core.Validate.Struct(ea) }
