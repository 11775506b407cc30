package contest

import "github.com/hekima/shindano/core/user"

type ReasonCode string

const (
	ReasonOK               ReasonCode = "OK"
	ReasonNotVisible       ReasonCode = "NOT_VISIBLE"
	ReasonPasswordRequired ReasonCode = "PASSWORD_REQUIRED"
)

// AccessDecision says whether a viewer may see a contest right now and
// which field set applies: FullFields selects the admin serialization.
type AccessDecision struct {
	Allowed    bool
	Reason     ReasonCode
	FullFields bool
}

// CanAccess decides contest access for a viewer. Rules apply in order,
// first match wins:
//  1. creator or super-admin: full access
//  2. invisible contest: denied
//  3. password set and not unlocked: denied
//  4. otherwise: allowed with the restricted field set
func CanAccess(c Contest, viewer user.User, unlocked bool) AccessDecision {
	if CanManage(c, viewer) {
		return AccessDecision{Allowed: true, Reason: ReasonOK, FullFields: true}
	}
	if !c.Visible {
		return AccessDecision{Reason: ReasonNotVisible}
	}
	if c.Password != "" && !unlocked {
		return AccessDecision{Reason: ReasonPasswordRequired}
	}
	return AccessDecision{Allowed: true, Reason: ReasonOK}
}

// CanManage reports whether the user owns the contest or is a super-admin.
// Every mutating contest operation requires it.
func CanManage(c Contest, u user.User) bool {
	if u.IsSuperAdmin() {
		return true
	}
	return u.ID != 0 && u.ID == c.CreatedBy.ID
}
