package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
)

// NewLogger returns a throwaway logger for test doubles.
func NewLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, adminType string,
	hasEmailAuth bool,
	createTime ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createTime) > 0 {
		tstamp = createTime[0].UTC()
	}
	usr := user.User{
		Username:     uname,
		Email:        email,
		AdminType:    adminType,
		HasEmailAuth: hasEmailAuth,
		CreateTime:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateContest(
	t *testing.T,
	repo contest.Repository,
	title string,
	creator user.User,
	start, end time.Time,
	visible bool,
	password string,
	createTime ...time.Time,
) contest.Contest {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createTime) > 0 {
		tstamp = createTime[0].UTC()
	}
	c := contest.Contest{
		Title:          title,
		Description:    title + " description",
		StartTime:      start.UTC(),
		EndTime:        end.UTC(),
		RuleType:       contest.RuleACM,
		Password:       password,
		Visible:        visible,
		CreatedBy:      creator.Public(),
		CreateTime:     tstamp,
		LastUpdateTime: tstamp,
	}
	c, err := repo.CreateContest(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateContest() failed: %v", err)
	}
	return c
}

func CreateAnnouncement(
	t *testing.T,
	repo contest.Repository,
	c contest.Contest,
	title, content string,
	visible bool,
	creator user.User,
	createTime ...time.Time,
) contest.Announcement {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createTime) > 0 {
		tstamp = createTime[0].UTC()
	}
	a := contest.Announcement{
		ContestID:      c.ID,
		Title:          title,
		Content:        content,
		Visible:        visible,
		CreatedBy:      creator.Public(),
		CreateTime:     tstamp,
		LastUpdateTime: tstamp,
	}
	a, err := repo.CreateAnnouncement(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAnnouncement() failed: %v", err)
	}
	return a
}
