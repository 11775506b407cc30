package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hekima/shindano/core"
)

var (
	ErrNotFound = core.NewNotFoundError("User does not exist")

	errLoginFailed      = core.NewValidationError(errors.New("Invalid username or password"))
	errAccountDisabled  = core.NewValidationError(errors.New("Your account has been disabled"))
	errEmailNotAuthed   = core.NewValidationError(errors.New("Your need to authenticate your email"))
	errRegisterDisabled = core.NewValidationError(errors.New("Register function has been disabled by admin"))
	errInvalidCaptcha   = core.NewValidationError(errors.New("Invalid captcha"))
	errUsernameExists   = core.NewValidationError(errors.New("Username already exists"))
	errEmailExists      = core.NewValidationError(errors.New("Email already exists"))
	errTokenNotFound    = core.NewNotFoundError("Token does not exist")
)

type (
	// CaptchaVerifier checks a user-supplied captcha answer.
	// Captcha generation lives outside this core.
	CaptchaVerifier interface {
		Check(ctx context.Context, value string) bool
	}

	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByAuthToken(ctx context.Context, token string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		captcha CaptchaVerifier
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, captcha CaptchaVerifier, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, captcha: captcha, conf: conf}
}

// Authenticate checks credentials and account state, recording the login time.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, errLoginFailed
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, errLoginFailed
	}
	if usr.IsDisabled {
		return User{}, errAccountDisabled
	}
	if !usr.HasEmailAuth {
		return User{}, errEmailNotAuthed
	}

	usr.LastLogin = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// Register creates a fresh account pending email authentication.
// allowRegister is injected per call so the toggle never lives in mutable global state.
func (svc *Service) Register(ctx context.Context, data Register, allowRegister bool) (User, error) {
	if !allowRegister {
		return User{}, errRegisterDisabled
	}
	if !svc.captcha.Check(ctx, data.Captcha) {
		return User{}, errInvalidCaptcha
	}
	if _, err := svc.repo.GetUserByUsername(ctx, data.Username); err == nil {
		return User{}, errUsernameExists
	} else if !core.IsNotFound(err) {
		return User{}, errors.Wrap(err, "checking username uniqueness")
	}
	if _, err := svc.repo.GetUserByEmail(ctx, data.Email); err == nil {
		return User{}, errEmailExists
	} else if !core.IsNotFound(err) {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := time.Now().UTC()
	usr := User{
		Username:       data.Username,
		Email:          data.Email,
		Major:          data.Major,
		School:         schoolFromEmail(data.Email),
		AdminType:      RegularUser,
		HasEmailAuth:   false,
		EmailAuthToken: uuid.New().String(),
		CreateTime:     now,
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.sendEmailAuthMail(usr)
	return usr, nil
}

// AuthenticateEmail consumes the mailed token and activates the account.
func (svc *Service) AuthenticateEmail(ctx context.Context, token string) (User, error) {
	usr, err := svc.repo.GetUserByAuthToken(ctx, token)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, errTokenNotFound
		}
		return User{}, errors.Wrap(err, "finding user by auth token")
	}
	usr.EmailAuthToken = ""
	usr.HasEmailAuth = true
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "activating user")
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) sendEmailAuthMail(usr User) {
	link := fmt.Sprintf("%s/email-auth/%s", svc.conf.FrontendBaseURL, usr.EmailAuthToken)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject: "Email Authentication",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nFollow this link to authenticate your %s account:\n%s\n",
			usr.Username, svc.conf.AppName, link),
	})
}

// schoolFromEmail derives the school tag from the email domain,
// e.g. "jo@g.skku.edu" -> "G".
func schoolFromEmail(email string) string {
	at := strings.SplitN(email, "@", 2)
	if len(at) != 2 {
		return ""
	}
	return strings.ToUpper(strings.SplitN(at[1], ".", 2)[0])
}
