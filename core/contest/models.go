package contest

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
)

type RuleType string

const (
	RuleACM RuleType = "ACM"
	RuleOI  RuleType = "OI"
)

// Status is derived from the contest time window, never stored.
// The wire values are part of the API contract.
type Status string

const (
	StatusNotStarted Status = "1"
	StatusUnderway   Status = "0"
	StatusEnded      Status = "-1"
)

type Contest struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartTime       time.Time       `json:"start_time"` // UTC
	EndTime         time.Time       `json:"end_time"`   // UTC
	RuleType        RuleType        `json:"rule_type"`
	Password        string          `json:"password"`
	Visible         bool            `json:"visible"`
	RealTimeRank    bool            `json:"real_time_rank"`
	AllowedIPRanges []string        `json:"allowed_ip_ranges"`
	AllowedSchools  []string        `json:"allowed_school"`
	AllowedLectures []string        `json:"allowed_lecture"`
	CreatedBy       user.PublicUser `json:"created_by"`
	CreateTime      time.Time       `json:"create_time"`      // UTC
	LastUpdateTime  time.Time       `json:"last_update_time"` // UTC
}

// StatusAt computes the derived status against the given instant.
func (c Contest) StatusAt(now time.Time) Status {
	switch {
	case now.Before(c.StartTime):
		return StatusNotStarted
	case now.Before(c.EndTime):
		return StatusUnderway
	default:
		return StatusEnded
	}
}

// AdminDetail is the full field set, shown to the creator and super-admins.
type AdminDetail struct {
	Contest
	Status Status `json:"status"`
}

func (c Contest) AdminDetail(now time.Time) AdminDetail {
	return AdminDetail{Contest: c, Status: c.StatusAt(now)}
}

// Detail is the restricted field set shown to regular viewers;
// it omits password, visible and the allow-lists.
type Detail struct {
	ID             int             `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	RuleType       RuleType        `json:"rule_type"`
	RealTimeRank   bool            `json:"real_time_rank"`
	CreatedBy      user.PublicUser `json:"created_by"`
	CreateTime     time.Time       `json:"create_time"`
	LastUpdateTime time.Time       `json:"last_update_time"`
	Status         Status          `json:"status"`
}

func (c Contest) Detail(now time.Time) Detail {
	return Detail{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		RuleType:       c.RuleType,
		RealTimeRank:   c.RealTimeRank,
		CreatedBy:      c.CreatedBy,
		CreateTime:     c.CreateTime,
		LastUpdateTime: c.LastUpdateTime,
		Status:         c.StatusAt(now),
	}
}

type Announcement struct {
	ID             int             `json:"id"`
	ContestID      int             `json:"contest_id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Visible        bool            `json:"visible"`
	CreatedBy      user.PublicUser `json:"created_by"`
	CreateTime     time.Time       `json:"create_time"`      // UTC
	LastUpdateTime time.Time       `json:"last_update_time"` // UTC
}

// Unlock records that a viewer supplied the contest password.
// It lives until the contest dies or its password changes.
type Unlock struct {
	ContestID  int       `json:"contest_id"`
	UserID     int       `json:"user_id"`
	UnlockedAt time.Time `json:"unlocked_at"` // UTC
}

// NewContest contains information needed to create a contest.
type NewContest struct {
	Title           string    `json:"title" validate:"required,max=128"`
	Description     string    `json:"description" validate:"required"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required"`
	RuleType        RuleType  `json:"rule_type" validate:"required,oneof=ACM OI"`
	Password        string    `json:"password" validate:"max=32"`
	Visible         bool      `json:"visible"`
	RealTimeRank    bool      `json:"real_time_rank"`
	AllowedIPRanges []string  `json:"allowed_ip_ranges"`
	AllowedSchools  []string  `json:"allowed_school"`
	AllowedLectures []string  `json:"allowed_lecture"`
}

func (nc *NewContest) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	if err := validateTimeRange(nc.StartTime, nc.EndTime); err != nil {
		return err
	}
	return validateIPRanges(nc.AllowedIPRanges)
}

// UpdateContest defines what may be changed on an existing contest.
// The rule type is fixed at creation. Password distinguishes
// null/absent ("leave unchanged") from "" ("clear the password").
type UpdateContest struct {
	ID              int         `json:"id" validate:"required"`
	Title           string      `json:"title" validate:"required,max=128"`
	Description     string      `json:"description" validate:"required"`
	StartTime       time.Time   `json:"start_time" validate:"required"`
	EndTime         time.Time   `json:"end_time" validate:"required"`
	Password        null.String `json:"password"`
	Visible         bool        `json:"visible"`
	RealTimeRank    bool        `json:"real_time_rank"`
	AllowedIPRanges []string    `json:"allowed_ip_ranges"`
	AllowedSchools  []string    `json:"allowed_school"`
	AllowedLectures []string    `json:"allowed_lecture"`
}

func (uc *UpdateContest) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	// null.String escapes the struct tags; same bound as the create path
	if uc.Password.Valid && len(uc.Password.String) > 32 {
		return core.NewValidationError(nil, core.FieldError{
			Field: "password",
			Error: "password must be a maximum of 32 characters in length",
		})
	}
	if err := validateTimeRange(uc.StartTime, uc.EndTime); err != nil {
		return err
	}
	return validateIPRanges(uc.AllowedIPRanges)
}

// NewAnnouncement contains information needed to announce within a contest.
type NewAnnouncement struct {
	ContestID int       `json:"contest_id" validate:"required"`
	Title     string    `json:"title" validate:"required,max=128"`
	Content   string    `json:"content" validate:"required"`
	Visible   null.Bool `json:"visible"` // defaults to true
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	return core.Validate.Struct(na)
}

// UpdateAnnouncement defines a partial edit; null fields are left unchanged.
type UpdateAnnouncement struct {
	ID      int         `json:"id" validate:"required"`
	Title   null.String `json:"title"`
	Content null.String `json:"content"`
	Visible null.Bool   `json:"visible"`
}

func (ua *UpdateAnnouncement) Validate() error { return core.Validate.Struct(ua) }

// VerifyPassword is posted by a viewer to unlock a password-protected contest.
type VerifyPassword struct {
	ContestID int    `json:"contest_id" validate:"required"`
	Password  string `json:"password" validate:"required,max=30"`
}

func (vp *VerifyPassword) Validate() error { return core.Validate.Struct(vp) }

// QueryFilter narrows contest listings. All criteria AND together.
type QueryFilter struct {
	Keyword  string // case-insensitive substring match on title
	RuleType string // equality; unknown values yield no rows (DB enum semantics)
	Status   string // derived-status equality; unknown values mean "no filter"
	Limit    int
	Offset   int

	// Visibility scope, set by the service, never by callers.
	IncludeHidden bool      // bypass the visible filter (super-admin)
	ViewerID      int       // also include hidden contests created by this viewer
	CreatedBy     int       // restrict to contests created by this user (admin listing)
	Now           time.Time // reference instant for derived-status filtering
}

// AnnouncementFilter narrows announcement listings within one contest.
type AnnouncementFilter struct {
	ContestID   int
	ID          int    // optional single-id lookup
	Keyword     string // case-insensitive substring over title and content
	MaxID       int    // only announcements with id <= MaxID (incremental polling)
	VisibleOnly bool   // set by the service for non-privileged viewers
}
