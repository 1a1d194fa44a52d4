package model

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) CanRead(c Contract) bool {
	return p.IsAdmin() || c.HasParty(p.UserID)
}

func (p Principal) CanModify(c Contract) bool {
	return p.IsAdmin() || (p.UserID != 0 && c.WriterID == p.UserID)
}
