package domain

import "strings"

// Side is the direction of a trade request.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) String() string { return string(s) }
func (s Side) Valid() bool    { return s == SideBuy || s == SideSell }

func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, true
	case "sell":
		return SideSell, true
	default:
		return "", false
	}
}

// Status is a transaction's lifecycle state. A transaction is created
// pending and moves exactly once to approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (st Status) String() string { return string(st) }
func (st Status) Valid() bool {
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (st Status) Terminal() bool { return st == StatusApproved || st == StatusRejected }

// Role is a closed set of user roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string { return string(r) }
func (r Role) Valid() bool    { return r == RoleUser || r == RoleAdmin }
