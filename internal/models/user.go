package models

// User represents an account holder. The id is assigned by the
// authentication service at sign-up and never changes afterwards.
// Profile fields are additive across schema versions.
type User struct {
	ID              string `gorm:"primaryKey" bson:"_id" json:"id"`
	Email           string `gorm:"not null" bson:"email" json:"email"`
	Username        string `gorm:"not null" bson:"username" json:"username"`
	ProfileImageURL string `bson:"profileImageUrl" json:"profile_image_url,omitempty"`
	YearOfStudy     string `bson:"yearOfStudy" json:"year_of_study,omitempty"`
	Degree          string `bson:"degree" json:"degree,omitempty"`
	CreatedAt       int64  `bson:"createdAt" json:"created_at"`
	// LastUpdated is monotonically non-decreasing and bounds incremental pulls.
	LastUpdated int64 `gorm:"index" bson:"lastUpdated" json:"last_updated"`
}

// ProfileUpdate carries the mutable profile fields for a merge-write.
// Nil pointers mean "leave unchanged".
type ProfileUpdate struct {
	Username        *string
	ProfileImageURL *string
	YearOfStudy     *string
	Degree          *string
}
