package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hekima/shindano/core/contest"
)

type contestRepository struct {
	db              *contestTable
	pkCount         int
	announcePkCount int
}

var _ contest.Repository = (*contestRepository)(nil) // interface compliance check

func NewContestRepository(db *DB) *contestRepository {
	return &contestRepository{db: db.contest}
}

func (repo *contestRepository) query() []contest.Contest {
	contests := make([]contest.Contest, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		contests = append(contests, *c)
	}
	return contests
}

func (repo *contestRepository) queryAnnouncements() []contest.Announcement {
	announcements := make([]contest.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		announcements = append(announcements, *a)
	}
	return announcements
}

func (repo *contestRepository) CreateContest(ctx context.Context, c contest.Contest) (contest.Contest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.pkCount++
	c.ID = repo.pkCount
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *contestRepository) GetContestByID(ctx context.Context, id int) (contest.Contest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return contest.Contest{}, contest.ErrNotFound
}

func matchesStatus(c contest.Contest, status string, now time.Time) bool {
	switch contest.Status(status) {
	case contest.StatusNotStarted, contest.StatusUnderway, contest.StatusEnded:
		return c.StatusAt(now) == contest.Status(status)
	default:
		return true
	}
}

func (repo *contestRepository) FilterContests(ctx context.Context, filter contest.QueryFilter) ([]contest.Contest, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contests := make([]contest.Contest, 0, len(repo.db.table))
	for _, c := range repo.query() {
		if !filter.IncludeHidden && !c.Visible && c.CreatedBy.ID != filter.ViewerID {
			continue
		}
		if filter.CreatedBy != 0 && c.CreatedBy.ID != filter.CreatedBy {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Keyword)) {
			continue
		}
		if filter.RuleType != "" && string(c.RuleType) != filter.RuleType {
			continue
		}
		if !matchesStatus(c, filter.Status, filter.Now) {
			continue
		}
		contests = append(contests, c)
	}

	sort.Slice(contests, func(i, j int) bool {
		if contests[i].CreateTime.Equal(contests[j].CreateTime) {
			return contests[i].ID > contests[j].ID
		}
		return contests[i].CreateTime.After(contests[j].CreateTime)
	})

	total := len(contests)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []contest.Contest{}, total, nil
		}
		contests = contests[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(contests) {
		contests = contests[:filter.Limit]
	}
	return contests, total, nil
}

func (repo *contestRepository) UpdateContest(ctx context.Context, c contest.Contest, invalidateUnlocks bool) (contest.Contest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return contest.Contest{}, contest.ErrNotFound
	}
	repo.db.table[c.ID] = &c

	if invalidateUnlocks {
		for key := range repo.db.unlocks {
			if key.contestID == c.ID {
				delete(repo.db.unlocks, key)
			}
		}
	}
	return c, nil
}

func (repo *contestRepository) DeleteContest(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return contest.ErrNotFound
	}
	delete(repo.db.table, id)
	for aid, a := range repo.db.announcements {
		if a.ContestID == id {
			delete(repo.db.announcements, aid)
		}
	}
	for key := range repo.db.unlocks {
		if key.contestID == id {
			delete(repo.db.unlocks, key)
		}
	}
	return nil
}

func (repo *contestRepository) CreateAnnouncement(ctx context.Context, a contest.Announcement) (contest.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.announcePkCount++
	a.ID = repo.announcePkCount
	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *contestRepository) GetAnnouncementByID(ctx context.Context, id int) (contest.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.announcements[id]; ok {
		return *a, nil
	}
	return contest.Announcement{}, contest.ErrAnnouncementNotFound
}

func (repo *contestRepository) FilterAnnouncements(ctx context.Context, filter contest.AnnouncementFilter) ([]contest.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	announcements := make([]contest.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.queryAnnouncements() {
		if a.ContestID != filter.ContestID {
			continue
		}
		if filter.ID != 0 && a.ID != filter.ID {
			continue
		}
		if filter.MaxID != 0 && a.ID > filter.MaxID {
			continue
		}
		if filter.Keyword != "" {
			kw := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(a.Title), kw) &&
				!strings.Contains(strings.ToLower(a.Content), kw) {
				continue
			}
		}
		if filter.VisibleOnly && !a.Visible {
			continue
		}
		announcements = append(announcements, a)
	}

	sort.Slice(announcements, func(i, j int) bool {
		if announcements[i].CreateTime.Equal(announcements[j].CreateTime) {
			return announcements[i].ID > announcements[j].ID
		}
		return announcements[i].CreateTime.After(announcements[j].CreateTime)
	})
	return announcements, nil
}

func (repo *contestRepository) UpdateAnnouncement(ctx context.Context, a contest.Announcement) (contest.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.announcements[a.ID]; !ok {
		return contest.Announcement{}, contest.ErrAnnouncementNotFound
	}
	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *contestRepository) DeleteAnnouncement(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.announcements[id]; !ok {
		return contest.ErrAnnouncementNotFound
	}
	delete(repo.db.announcements, id)
	return nil
}

func (repo *contestRepository) UpsertUnlock(ctx context.Context, contestID, userID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := unlockKey{contestID: contestID, userID: userID}
	repo.db.unlocks[key] = contest.Unlock{
		ContestID:  contestID,
		UserID:     userID,
		UnlockedAt: time.Now().UTC(),
	}
	return nil
}

func (repo *contestRepository) UpsertUnlockIfPassword(ctx context.Context, contestID, userID int, supplied string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// check and write under the same lock
	c, ok := repo.db.table[contestID]
	if !ok || c.Password == "" || c.Password != supplied {
		return false, nil
	}
	repo.db.unlocks[unlockKey{contestID: contestID, userID: userID}] = contest.Unlock{
		ContestID:  contestID,
		UserID:     userID,
		UnlockedAt: time.Now().UTC(),
	}
	return true, nil
}

func (repo *contestRepository) HasUnlock(ctx context.Context, contestID, userID int) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.unlocks[unlockKey{contestID: contestID, userID: userID}]
	return ok, nil
}
