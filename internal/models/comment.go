package models

// Comment is an append/delete-only reply to a post; there is no edit.
// AuthorName and AuthorImageURL are a snapshot of the author at creation
// time and are not kept live.
type Comment struct {
	ID             string `gorm:"primaryKey" bson:"_id" json:"id"`
	PostID         string `gorm:"not null;index" bson:"postId" json:"post_id"`
	UserID         string `gorm:"not null" bson:"userId" json:"user_id"`
	AuthorName     string `bson:"authorName" json:"author_name"`
	AuthorImageURL string `bson:"authorImageUrl" json:"author_image_url,omitempty"`
	Content        string `gorm:"type:text;not null" bson:"content" json:"content"`
	Timestamp      int64  `gorm:"index" bson:"timestamp" json:"timestamp"`
}
