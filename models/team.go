package models

import "github.com/uptrace/bun"

// Team member statuses. Ad-hoc teams are built from email invitations,
// so a roster entry may reference an existing account, an invited member
// who has not yet confirmed, or an invitee with no account at all.
const (
	MemberConfirmed      = "confirmed"
	MemberPending        = "pending"
	MemberPendingAccount = "pending_account"
)

// Team is a group of participants registered for a raid. Temporary teams
// are ad-hoc rosters assembled for a single raid via invitations.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	TeamID    int    `bun:"team_id,pk,autoincrement" json:"teamID"`
	RaidID    int    `bun:"raid_id,notnull" json:"raidID"`
	Name      string `bun:"name,notnull" json:"name"`
	Temporary bool   `bun:"temporary,notnull,default:false" json:"temporary"`
}

// TeamMember links a user (or a not-yet-registered invitee) to a team.
// UserID is null only for pending_account members, which are identified
// by invitation email instead.
type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tm"`

	ID     int     `bun:"id,pk,autoincrement" json:"id"`
	TeamID int     `bun:"team_id,notnull" json:"teamID"`
	UserID *int    `bun:"user_id" json:"userID,omitempty"`
	Email  *string `bun:"email" json:"email,omitempty"`
	Status string  `bun:"status,notnull,default:'pending'" json:"status"`
}

// ValidMemberStatus reports whether s is one of the roster status variants.
func ValidMemberStatus(s string) bool {
	return s == MemberConfirmed || s == MemberPending || s == MemberPendingAccount
}
