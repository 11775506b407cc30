package contest

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/core/user"
)

var (
	ErrNotFound             = core.NewNotFoundError("Contest does not exist")
	ErrAnnouncementNotFound = core.NewNotFoundError("Contest announcement does not exist")

	// Deletion paths keep the historical wording for compatibility.
	errContestGone      = core.NewNotFoundError("Contest does not exists")
	errAnnouncementGone = core.NewNotFoundError("Contest announcement does not exists")

	// ErrWrongPassword covers both a wrong guess and "no password configured",
	// so callers cannot probe the configuration.
	ErrWrongPassword    = core.NewPermissionError("Wrong password or password expired")
	ErrPasswordRequired = core.NewPermissionError("Password is required")
	errNotOwner         = core.NewPermissionError("permission denied")

	errContestIDRequired = core.NewValidationError(errors.New("Parameter error, contest_id is required"))
)

type (
	// Repository persists contests, their announcements and unlock records.
	// Mutations touching several tables (delete cascade, password-change
	// invalidation) must run in a single transaction.
	Repository interface {
		CreateContest(ctx context.Context, c Contest) (Contest, error)
		GetContestByID(ctx context.Context, id int) (Contest, error)
		// FilterContests applies AND over the filter criteria and returns a
		// page plus the unpaginated total, ordered by create_time descending.
		FilterContests(ctx context.Context, filter QueryFilter) ([]Contest, int, error)
		// UpdateContest persists the contest; when invalidateUnlocks is set it
		// also deletes all unlock records of the contest in the same transaction.
		UpdateContest(ctx context.Context, c Contest, invalidateUnlocks bool) (Contest, error)
		// DeleteContest removes the contest, cascading to its announcements
		// and unlock records.
		DeleteContest(ctx context.Context, id int) error

		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id int) (Announcement, error)
		// FilterAnnouncements orders by create_time descending, id descending
		// for equal timestamps.
		FilterAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id int) error

		UpsertUnlock(ctx context.Context, contestID, userID int) error
		// UpsertUnlockIfPassword records the unlock only if the contest's
		// CURRENT password is non-empty and equals supplied, checked and
		// written in one transaction so a concurrent password change cannot
		// leave an unlock obtained with the old password. Returns false when
		// the password did not match (or the contest is gone).
		UpsertUnlockIfPassword(ctx context.Context, contestID, userID int, supplied string) (bool, error)
		HasUnlock(ctx context.Context, contestID, userID int) (bool, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (svc *Service) Now() time.Time { return svc.now() }

// Create persists a new contest owned by the acting admin.
func (svc *Service) Create(ctx context.Context, viewer user.User, nc NewContest) (Contest, error) {
	now := svc.now()
	c := Contest{
		Title:           nc.Title,
		Description:     nc.Description,
		StartTime:       nc.StartTime.UTC(),
		EndTime:         nc.EndTime.UTC(),
		RuleType:        nc.RuleType,
		Password:        nc.Password,
		Visible:         nc.Visible,
		RealTimeRank:    nc.RealTimeRank,
		AllowedIPRanges: nc.AllowedIPRanges,
		AllowedSchools:  nc.AllowedSchools,
		AllowedLectures: nc.AllowedLectures,
		CreatedBy:       viewer.Public(),
		CreateTime:      now,
		LastUpdateTime:  now,
	}
	return svc.repo.CreateContest(ctx, c)
}

// Update edits an owned contest. Changing the password (including clearing
// it) invalidates every unlock record of the contest atomically.
func (svc *Service) Update(ctx context.Context, viewer user.User, uc UpdateContest) (Contest, error) {
	c, err := svc.repo.GetContestByID(ctx, uc.ID)
	if err != nil {
		return Contest{}, err
	}
	if !CanManage(c, viewer) {
		return Contest{}, errNotOwner
	}

	var passwordChanged bool
	if uc.Password.Valid && uc.Password.String != c.Password {
		c.Password = uc.Password.String
		passwordChanged = true
	}

	c.Title = uc.Title
	c.Description = uc.Description
	c.StartTime = uc.StartTime.UTC()
	c.EndTime = uc.EndTime.UTC()
	c.Visible = uc.Visible
	c.RealTimeRank = uc.RealTimeRank
	c.AllowedIPRanges = uc.AllowedIPRanges
	c.AllowedSchools = uc.AllowedSchools
	c.AllowedLectures = uc.AllowedLectures
	c.LastUpdateTime = svc.now()

	return svc.repo.UpdateContest(ctx, c, passwordChanged)
}

// Get fetches a contest without access evaluation.
func (svc *Service) Get(ctx context.Context, id int) (Contest, error) {
	return svc.repo.GetContestByID(ctx, id)
}

// GetForAdmin fetches a contest for the admin API; regular admins may only
// read their own contests.
func (svc *Service) GetForAdmin(ctx context.Context, viewer user.User, id int) (Contest, error) {
	c, err := svc.repo.GetContestByID(ctx, id)
	if err != nil {
		return Contest{}, err
	}
	if !CanManage(c, viewer) {
		return Contest{}, errNotOwner
	}
	return c, nil
}

// GetForViewer fetches a contest and evaluates access for the viewer.
// An invisible contest is indistinguishable from an absent one.
func (svc *Service) GetForViewer(ctx context.Context, viewer user.User, id int) (Contest, AccessDecision, error) {
	c, err := svc.repo.GetContestByID(ctx, id)
	if err != nil {
		return Contest{}, AccessDecision{}, err
	}
	unlocked, err := svc.unlocked(ctx, c, viewer)
	if err != nil {
		return Contest{}, AccessDecision{}, err
	}

	d := CanAccess(c, viewer, unlocked)
	if !d.Allowed {
		if d.Reason == ReasonPasswordRequired {
			return Contest{}, d, ErrPasswordRequired
		}
		return Contest{}, d, ErrNotFound
	}
	return c, d, nil
}

// Filter lists contests for the public API. Hidden contests stay listed for
// their creator and for super-admins.
func (svc *Service) Filter(ctx context.Context, viewer user.User, filter QueryFilter) ([]Contest, int, error) {
	filter.Now = svc.now()
	filter.IncludeHidden = viewer.IsSuperAdmin()
	filter.ViewerID = viewer.ID
	return svc.repo.FilterContests(ctx, filter)
}

// FilterAdmin lists contests for the admin API: super-admins see everything,
// regular admins only what they created.
func (svc *Service) FilterAdmin(ctx context.Context, viewer user.User, filter QueryFilter) ([]Contest, int, error) {
	filter.Now = svc.now()
	filter.IncludeHidden = true
	if !viewer.IsSuperAdmin() {
		filter.CreatedBy = viewer.ID
	}
	return svc.repo.FilterContests(ctx, filter)
}

// Delete removes an owned contest with its announcements and unlock records.
func (svc *Service) Delete(ctx context.Context, viewer user.User, id int) error {
	c, err := svc.repo.GetContestByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return errContestGone
		}
		return err
	}
	if !CanManage(c, viewer) {
		return errNotOwner
	}
	return svc.repo.DeleteContest(ctx, id)
}

// VerifyPassword unlocks a password-protected contest for the viewer.
// A contest with no password set fails the same way as a wrong guess.
// The password check and the unlock write happen in one repository call
// so they cannot interleave with a password change.
func (svc *Service) VerifyPassword(ctx context.Context, viewer user.User, data VerifyPassword) error {
	if _, err := svc.repo.GetContestByID(ctx, data.ContestID); err != nil {
		return err
	}
	ok, err := svc.repo.UpsertUnlockIfPassword(ctx, data.ContestID, viewer.ID, data.Password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

// CheckAccess is the side-effect-free probe clients use to decide whether to
// prompt for a password.
func (svc *Service) CheckAccess(ctx context.Context, viewer user.User, contestID int) (bool, error) {
	c, err := svc.repo.GetContestByID(ctx, contestID)
	if err != nil {
		return false, err
	}
	if CanManage(c, viewer) || c.Password == "" {
		return true, nil
	}
	return svc.repo.HasUnlock(ctx, c.ID, viewer.ID)
}

// CreateAnnouncement adds an announcement to an owned contest.
func (svc *Service) CreateAnnouncement(ctx context.Context, viewer user.User, na NewAnnouncement) (Announcement, error) {
	c, err := svc.repo.GetContestByID(ctx, na.ContestID)
	if err != nil {
		return Announcement{}, err
	}
	if !CanManage(c, viewer) {
		return Announcement{}, errNotOwner
	}

	now := svc.now()
	a := Announcement{
		ContestID:      c.ID,
		Title:          na.Title,
		Content:        na.Content,
		Visible:        !na.Visible.Valid || na.Visible.Bool, // defaults to true
		CreatedBy:      viewer.Public(),
		CreateTime:     now,
		LastUpdateTime: now,
	}
	return svc.repo.CreateAnnouncement(ctx, a)
}

// UpdateAnnouncement edits an announcement of an owned contest; null fields
// are left unchanged.
func (svc *Service) UpdateAnnouncement(ctx context.Context, viewer user.User, ua UpdateAnnouncement) (Announcement, error) {
	a, err := svc.repo.GetAnnouncementByID(ctx, ua.ID)
	if err != nil {
		return Announcement{}, err
	}
	c, err := svc.repo.GetContestByID(ctx, a.ContestID)
	if err != nil {
		return Announcement{}, err
	}
	if !CanManage(c, viewer) {
		return Announcement{}, errNotOwner
	}

	if ua.Title.Valid {
		a.Title = core.CleanString(ua.Title.String)
	}
	if ua.Content.Valid {
		a.Content = ua.Content.String
	}
	if ua.Visible.Valid {
		a.Visible = ua.Visible.Bool
	}
	a.LastUpdateTime = svc.now()

	return svc.repo.UpdateAnnouncement(ctx, a)
}

// DeleteAnnouncement removes an announcement of an owned contest.
func (svc *Service) DeleteAnnouncement(ctx context.Context, viewer user.User, id int) error {
	a, err := svc.repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return errAnnouncementGone
		}
		return err
	}
	c, err := svc.repo.GetContestByID(ctx, a.ContestID)
	if err != nil {
		return err
	}
	if !CanManage(c, viewer) {
		return errNotOwner
	}
	return svc.repo.DeleteAnnouncement(ctx, id)
}

// Announcements lists a contest's announcements for a viewer. Regular
// viewers only ever see visible announcements of visible contests.
func (svc *Service) Announcements(ctx context.Context, viewer user.User, filter AnnouncementFilter) ([]Announcement, error) {
	if filter.ContestID == 0 {
		return nil, errContestIDRequired
	}
	c, err := svc.repo.GetContestByID(ctx, filter.ContestID)
	if err != nil {
		return nil, err
	}
	if !CanManage(c, viewer) {
		if !c.Visible {
			return nil, ErrNotFound
		}
		filter.VisibleOnly = true
	}
	return svc.repo.FilterAnnouncements(ctx, filter)
}

// AdminAnnouncements lists all announcements of an owned contest. A bare
// id is enough for a single lookup; the contest is resolved through it.
func (svc *Service) AdminAnnouncements(ctx context.Context, viewer user.User, filter AnnouncementFilter) ([]Announcement, error) {
	if filter.ContestID == 0 {
		if filter.ID == 0 {
			return nil, errContestIDRequired
		}
		a, err := svc.repo.GetAnnouncementByID(ctx, filter.ID)
		if err != nil {
			return nil, err
		}
		filter.ContestID = a.ContestID
	}
	c, err := svc.repo.GetContestByID(ctx, filter.ContestID)
	if err != nil {
		return nil, err
	}
	if !CanManage(c, viewer) {
		return nil, errNotOwner
	}
	return svc.repo.FilterAnnouncements(ctx, filter)
}

func (svc *Service) unlocked(ctx context.Context, c Contest, viewer user.User) (bool, error) {
	if c.Password == "" || viewer.ID == 0 {
		return false, nil
	}
	return svc.repo.HasUnlock(ctx, c.ID, viewer.ID)
}
