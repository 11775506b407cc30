package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
)

type contestRow struct {
	ID                int            `db:"id"`
	Title             string         `db:"title"`
	Description       string         `db:"description"`
	StartTime         time.Time      `db:"start_time"`
	EndTime           time.Time      `db:"end_time"`
	RuleType          string         `db:"rule_type"`
	Password          string         `db:"password"`
	Visible           bool           `db:"visible"`
	RealTimeRank      bool           `db:"real_time_rank"`
	AllowedIPRanges   pq.StringArray `db:"allowed_ip_ranges"`
	AllowedSchools    pq.StringArray `db:"allowed_school"`
	AllowedLectures   pq.StringArray `db:"allowed_lecture"`
	CreatorID         int            `db:"creator_id"`
	CreatorUsername   string         `db:"creator_username"`
	CreateTime        time.Time      `db:"create_time"`
	LastUpdateTime    time.Time      `db:"last_update_time"`
}

func (r contestRow) model() contest.Contest {
	return contest.Contest{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		RuleType:        contest.RuleType(r.RuleType),
		Password:        r.Password,
		Visible:         r.Visible,
		RealTimeRank:    r.RealTimeRank,
		AllowedIPRanges: r.AllowedIPRanges,
		AllowedSchools:  r.AllowedSchools,
		AllowedLectures: r.AllowedLectures,
		CreatedBy:       user.PublicUser{ID: r.CreatorID, Username: r.CreatorUsername},
		CreateTime:      r.CreateTime,
		LastUpdateTime:  r.LastUpdateTime,
	}
}

type announcementRow struct {
	ID              int       `db:"id"`
	ContestID       int       `db:"contest_id"`
	Title           string    `db:"title"`
	Content         string    `db:"content"`
	Visible         bool      `db:"visible"`
	CreatorID       int       `db:"creator_id"`
	CreatorUsername string    `db:"creator_username"`
	CreateTime      time.Time `db:"create_time"`
	LastUpdateTime  time.Time `db:"last_update_time"`
}

func (r announcementRow) model() contest.Announcement {
	return contest.Announcement{
		ID:             r.ID,
		ContestID:      r.ContestID,
		Title:          r.Title,
		Content:        r.Content,
		Visible:        r.Visible,
		CreatedBy:      user.PublicUser{ID: r.CreatorID, Username: r.CreatorUsername},
		CreateTime:     r.CreateTime,
		LastUpdateTime: r.LastUpdateTime,
	}
}

const contestSelect = `
	SELECT c.id, c.title, c.description, c.start_time, c.end_time, c.rule_type,
	       c.password, c.visible, c.real_time_rank, c.allowed_ip_ranges,
	       c.allowed_school, c.allowed_lecture, c.creator_id,
	       u.username AS creator_username, c.create_time, c.last_update_time
	FROM contest AS c
	INNER JOIN "user" AS u ON u.id = c.creator_id`

const announcementSelect = `
	SELECT a.id, a.contest_id, a.title, a.content, a.visible, a.creator_id,
	       u.username AS creator_username, a.create_time, a.last_update_time
	FROM contest_announcement AS a
	INNER JOIN "user" AS u ON u.id = a.creator_id`

type contestRepository struct {
	db *sqlx.DB
}

var _ contest.Repository = (*contestRepository)(nil) // interface compliance check

func NewContestRepository(db *sqlx.DB) *contestRepository {
	return &contestRepository{db: db}
}

func (repo contestRepository) CreateContest(ctx context.Context, c contest.Contest) (contest.Contest, error) {
	q := `
		INSERT INTO contest (title, description, start_time, end_time, rule_type, password,
		                     visible, real_time_rank, allowed_ip_ranges, allowed_school,
		                     allowed_lecture, creator_id, create_time, last_update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		c.Title, c.Description, c.StartTime.UTC(), c.EndTime.UTC(), c.RuleType, c.Password,
		c.Visible, c.RealTimeRank, pq.StringArray(c.AllowedIPRanges),
		pq.StringArray(c.AllowedSchools), pq.StringArray(c.AllowedLectures),
		c.CreatedBy.ID, c.CreateTime.UTC(), c.LastUpdateTime.UTC(),
	).Scan(&c.ID)
	if err != nil {
		return contest.Contest{}, errors.Wrap(err, "inserting contest")
	}
	return c, nil
}

func (repo contestRepository) GetContestByID(ctx context.Context, id int) (contest.Contest, error) {
	var row contestRow
	q := contestSelect + ` WHERE c.id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contest.Contest{}, contest.ErrNotFound
		}
		return contest.Contest{}, errors.Wrap(err, "getting contest")
	}
	return row.model(), nil
}

// FilterContests builds WHERE clauses incrementally with positional params.
func (repo contestRepository) FilterContests(ctx context.Context, filter contest.QueryFilter) ([]contest.Contest, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !filter.IncludeHidden {
		if filter.ViewerID != 0 {
			where += " AND (c.visible = TRUE OR c.creator_id = " + arg(filter.ViewerID) + ")"
		} else {
			where += " AND c.visible = TRUE"
		}
	}
	if filter.CreatedBy != 0 {
		where += " AND c.creator_id = " + arg(filter.CreatedBy)
	}
	if filter.Keyword != "" {
		where += " AND c.title ILIKE " + arg("%"+filter.Keyword+"%")
	}
	if filter.RuleType != "" {
		where += " AND c.rule_type = " + arg(filter.RuleType)
	}
	switch contest.Status(filter.Status) {
	case contest.StatusNotStarted:
		where += " AND c.start_time > " + arg(filter.Now.UTC())
	case contest.StatusUnderway:
		now := arg(filter.Now.UTC())
		where += " AND c.start_time <= " + now + " AND c.end_time > " + now
	case contest.StatusEnded:
		where += " AND c.end_time <= " + arg(filter.Now.UTC())
	}

	var total int
	countQ := `SELECT COUNT(*) FROM contest AS c` + where
	if err := repo.db.GetContext(ctx, &total, countQ, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting contests")
	}

	q := contestSelect + where + " ORDER BY c.create_time DESC, c.id DESC"
	if filter.Limit > 0 {
		q += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		q += " OFFSET " + arg(filter.Offset)
	}

	var rows []contestRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering contests")
	}
	contests := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		contests = append(contests, row.model())
	}
	return contests, total, nil
}

func (repo contestRepository) UpdateContest(ctx context.Context, c contest.Contest, invalidateUnlocks bool) (contest.Contest, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return contest.Contest{}, errors.Wrap(err, "beginning tx")
	}
	defer tx.Rollback()

	q := `
		UPDATE contest
		SET title = $1, description = $2, start_time = $3, end_time = $4, password = $5,
		    visible = $6, real_time_rank = $7, allowed_ip_ranges = $8, allowed_school = $9,
		    allowed_lecture = $10, last_update_time = $11
		WHERE id = $12`
	res, err := tx.ExecContext(ctx, q,
		c.Title, c.Description, c.StartTime.UTC(), c.EndTime.UTC(), c.Password,
		c.Visible, c.RealTimeRank, pq.StringArray(c.AllowedIPRanges),
		pq.StringArray(c.AllowedSchools), pq.StringArray(c.AllowedLectures),
		c.LastUpdateTime.UTC(), c.ID,
	)
	if err != nil {
		return contest.Contest{}, errors.Wrap(err, "updating contest")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contest.Contest{}, contest.ErrNotFound
	}

	if invalidateUnlocks {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contest_unlock WHERE contest_id = $1`, c.ID); err != nil {
			return contest.Contest{}, errors.Wrap(err, "invalidating unlocks")
		}
	}
	if err := tx.Commit(); err != nil {
		return contest.Contest{}, errors.Wrap(err, "committing tx")
	}
	return c, nil
}

// DeleteContest relies on FK cascades for announcements and unlock records.
func (repo contestRepository) DeleteContest(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM contest WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting contest")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contest.ErrNotFound
	}
	return nil
}

func (repo contestRepository) CreateAnnouncement(ctx context.Context, a contest.Announcement) (contest.Announcement, error) {
	q := `
		INSERT INTO contest_announcement (contest_id, title, content, visible, creator_id,
		                                  create_time, last_update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		a.ContestID, a.Title, a.Content, a.Visible, a.CreatedBy.ID,
		a.CreateTime.UTC(), a.LastUpdateTime.UTC(),
	).Scan(&a.ID)
	if err != nil {
		return contest.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo contestRepository) GetAnnouncementByID(ctx context.Context, id int) (contest.Announcement, error) {
	var row announcementRow
	q := announcementSelect + ` WHERE a.id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contest.Announcement{}, contest.ErrAnnouncementNotFound
		}
		return contest.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	return row.model(), nil
}

func (repo contestRepository) FilterAnnouncements(ctx context.Context, filter contest.AnnouncementFilter) ([]contest.Announcement, error) {
	where := " WHERE a.contest_id = $1"
	args := []interface{}{filter.ContestID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.ID != 0 {
		where += " AND a.id = " + arg(filter.ID)
	}
	if filter.MaxID != 0 {
		where += " AND a.id <= " + arg(filter.MaxID)
	}
	if filter.Keyword != "" {
		kw := arg("%" + filter.Keyword + "%")
		where += " AND (a.title ILIKE " + kw + " OR a.content ILIKE " + kw + ")"
	}
	if filter.VisibleOnly {
		where += " AND a.visible = TRUE"
	}

	q := announcementSelect + where + " ORDER BY a.create_time DESC, a.id DESC"
	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering announcements")
	}
	announcements := make([]contest.Announcement, 0, len(rows))
	for _, row := range rows {
		announcements = append(announcements, row.model())
	}
	return announcements, nil
}

func (repo contestRepository) UpdateAnnouncement(ctx context.Context, a contest.Announcement) (contest.Announcement, error) {
	q := `
		UPDATE contest_announcement
		SET title = $1, content = $2, visible = $3, last_update_time = $4
		WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, q,
		a.Title, a.Content, a.Visible, a.LastUpdateTime.UTC(), a.ID,
	)
	if err != nil {
		return contest.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contest.Announcement{}, contest.ErrAnnouncementNotFound
	}
	return a, nil
}

func (repo contestRepository) DeleteAnnouncement(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM contest_announcement WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contest.ErrAnnouncementNotFound
	}
	return nil
}

func (repo contestRepository) UpsertUnlock(ctx context.Context, contestID, userID int) error {
	q := `
		INSERT INTO contest_unlock (contest_id, user_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (contest_id, user_id) DO UPDATE SET unlocked_at = EXCLUDED.unlocked_at`
	if _, err := repo.db.ExecContext(ctx, q, contestID, userID, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "upserting unlock")
	}
	return nil
}

// UpsertUnlockIfPassword re-checks the contest password inside the INSERT
// itself; a password UPDATE committing concurrently either happens before
// (no row inserted) or after (the unlock is deleted by its invalidation).
func (repo contestRepository) UpsertUnlockIfPassword(ctx context.Context, contestID, userID int, supplied string) (bool, error) {
	q := `
		INSERT INTO contest_unlock (contest_id, user_id, unlocked_at)
		SELECT id, $2, $3 FROM contest
		WHERE id = $1 AND password <> '' AND password = $4
		ON CONFLICT (contest_id, user_id) DO UPDATE SET unlocked_at = EXCLUDED.unlocked_at`
	res, err := repo.db.ExecContext(ctx, q, contestID, userID, time.Now().UTC(), supplied)
	if err != nil {
		return false, errors.Wrap(err, "upserting unlock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "upserting unlock")
	}
	return n > 0, nil
}

func (repo contestRepository) HasUnlock(ctx context.Context, contestID, userID int) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM contest_unlock WHERE contest_id = $1 AND user_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, q, contestID, userID); err != nil {
		return false, errors.Wrap(err, "checking unlock")
	}
	return exists, nil
}
