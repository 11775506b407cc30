package dummydb

import (
	"sync"

	"github.com/hekima/shindano/core/contest"
	"github.com/hekima/shindano/core/user"
)

type unlockKey struct {
	contestID int
	userID    int
}

type (
	DB struct {
		user    *userTable
		contest *contestTable
	}

	userTable struct {
		sync.RWMutex
		table map[int]*user.User
	}

	contestTable struct {
		sync.RWMutex
		table         map[int]*contest.Contest
		announcements map[int]*contest.Announcement
		unlocks       map[unlockKey]contest.Unlock
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[int]*user.User)},
		contest: &contestTable{
			table:         make(map[int]*contest.Contest),
			announcements: make(map[int]*contest.Announcement),
			unlocks:       make(map[unlockKey]contest.Unlock),
		},
	}
	return db, nil
}
