package contest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hekima/shindano/core/user"
)

func Test_CanAccess(t *testing.T) {
	creator := user.User{ID: 1, Username: "alice", AdminType: user.Admin}
	super := user.User{ID: 2, Username: "root", AdminType: user.SuperAdmin}
	viewer := user.User{ID: 3, Username: "hero", AdminType: user.RegularUser}
	anonymous := user.User{}

	open := Contest{ID: 10, Visible: true, CreatedBy: creator.Public()}
	hidden := Contest{ID: 11, Visible: false, CreatedBy: creator.Public()}
	locked := Contest{ID: 12, Visible: true, Password: "pw123", CreatedBy: creator.Public()}
	hiddenLocked := Contest{ID: 13, Visible: false, Password: "pw123", CreatedBy: creator.Public()}

	tests := []struct {
		name     string
		contest  Contest
		viewer   user.User
		unlocked bool
		want     AccessDecision
	}{
		{
			name: "creator gets full fields", contest: hiddenLocked, viewer: creator,
			want: AccessDecision{Allowed: true, Reason: ReasonOK, FullFields: true},
		},
		{
			name: "super admin gets full fields", contest: hiddenLocked, viewer: super,
			want: AccessDecision{Allowed: true, Reason: ReasonOK, FullFields: true},
		},
		{
			name: "hidden contest is denied before the password gate", contest: hiddenLocked, viewer: viewer, unlocked: true,
			want: AccessDecision{Reason: ReasonNotVisible},
		},
		{
			name: "hidden contest denied for anonymous", contest: hidden, viewer: anonymous,
			want: AccessDecision{Reason: ReasonNotVisible},
		},
		{
			name: "locked contest without unlock", contest: locked, viewer: viewer,
			want: AccessDecision{Reason: ReasonPasswordRequired},
		},
		{
			name: "locked contest with unlock", contest: locked, viewer: viewer, unlocked: true,
			want: AccessDecision{Allowed: true, Reason: ReasonOK},
		},
		{
			name: "open contest for regular viewer", contest: open, viewer: viewer,
			want: AccessDecision{Allowed: true, Reason: ReasonOK},
		},
		{
			name: "open contest for anonymous", contest: open, viewer: anonymous,
			want: AccessDecision{Allowed: true, Reason: ReasonOK},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(tt.contest, tt.viewer, tt.unlocked))
		})
	}
}

func Test_CanManage(t *testing.T) {
	creator := user.User{ID: 1, AdminType: user.Admin}
	c := Contest{ID: 10, CreatedBy: creator.Public()}

	assert.True(t, CanManage(c, creator))
	assert.True(t, CanManage(c, user.User{ID: 9, AdminType: user.SuperAdmin}))
	assert.False(t, CanManage(c, user.User{ID: 2, AdminType: user.Admin}))
	assert.False(t, CanManage(c, user.User{ID: 2, AdminType: user.RegularUser}))

	// an anonymous viewer never matches, even against a zero-valued creator
	assert.False(t, CanManage(Contest{ID: 11}, user.User{}))
}
