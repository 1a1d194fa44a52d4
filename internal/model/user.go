package model

type User struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name  string `gorm:"column:name;not null" json:"name"`
	Audit
}

func (User) TableName() string { return "users" }

func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
