package models

// User carries the ids of the blogs it owns as a denormalized column.
// The list is maintained by the blog handlers on create and delete,
// never derived by a query, so a blog id lives in exactly one user's
// list while the blog exists.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Name         string `json:"name"`
	BlogIDs      []uint `gorm:"serializer:json"          json:"blogs"`
}

type Blog struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title  string `gorm:"not null"                 json:"title"`
	Author string `json:"author"`
	URL    string `gorm:"not null"                 json:"url"`
	Likes  int    `gorm:"default:0"                json:"likes"`
	UserID uint   `gorm:"index"                    json:"user"`
}
