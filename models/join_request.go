package models

import "time"

// JoinRequestStatus соответствует ENUM в БД.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// MembershipStatus описывает вычисляемое отношение пользователя к конкретной
// команде. Не хранится в БД: выводится из team_members, teams.captain_id и
// последней заявки пользователя. Порядок приоритета: капитанство > членство >
// ожидающая заявка > прошлая заявка > ничего.
type MembershipStatus string

const (
	MembershipCaptain          MembershipStatus = "CAPTAIN"
	MembershipCaptainOtherTeam MembershipStatus = "CAPTAIN_OTHER_TEAM"
	MembershipMember           MembershipStatus = "MEMBER"
	MembershipOtherTeam        MembershipStatus = "OTHER_TEAM"
	MembershipPending          MembershipStatus = "PENDING"
	MembershipRejected         MembershipStatus = "REJECTED"
	MembershipCanRequest       MembershipStatus = "CAN_REQUEST"
)

type JoinRequest struct {
	ID        int               `json:"id" db:"id"`
	TeamID    int               `json:"team_id" db:"team_id"`
	UserID    int               `json:"user_id" db:"user_id"`
	Status    JoinRequestStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}

// MembershipState это результат ComputeStatus вместе с данными, которые
// нужны клиенту для отрисовки (может ли пользователь подать заявку, какая
// заявка сейчас висит).
type MembershipState struct {
	Status     MembershipStatus `json:"status"`
	CanRequest bool             `json:"can_request"`
	Request    *JoinRequest     `json:"request,omitempty"`
}
