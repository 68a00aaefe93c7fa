// Package models contains data structures for the studygram sync core.
package models

import (
	"strings"
	"time"
)

// DifficultyLevel classifies how hard the material in a post is.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// ParseDifficulty maps a free-form string onto a DifficultyLevel,
// defaulting to Medium for anything unrecognized.
func ParseDifficulty(s string) DifficultyLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Post represents a study post. The same struct is persisted in the local
// sqlite cache (gorm tags) and in the remote document store (bson tags).
// LikedBy is kept as a comma-joined string in the cache row; the remote
// document stores it as a string array (see LikedByList / remote.Client).
type Post struct {
	ID              string `gorm:"primaryKey" bson:"_id" json:"id"`
	UserID          string `gorm:"not null;index" bson:"userId" json:"user_id"`
	AuthorName      string `bson:"authorName" json:"author_name"`
	AuthorImageURL  string `bson:"authorImageUrl" json:"author_image_url,omitempty"`
	Title           string `gorm:"not null" bson:"title" json:"title"`
	Content         string `gorm:"type:text" bson:"content" json:"content"`
	CourseTag       string `gorm:"index" bson:"courseTag" json:"course_tag"`
	DifficultyLevel string `bson:"difficultyLevel" json:"difficulty_level"`
	ImageURL        string `bson:"imageUrl" json:"image_url,omitempty"`
	Likes           int    `bson:"likes" json:"likes"`
	LikedBy         string `gorm:"type:text" bson:"-" json:"-"`
	CommentsCount   int    `bson:"commentsCount" json:"comments_count"`
	// Timestamp is the creation time in unix milliseconds, immutable.
	Timestamp int64 `gorm:"index" bson:"timestamp" json:"timestamp"`
	// LastUpdated is the mutation cursor used for incremental pulls.
	LastUpdated int64 `gorm:"index" bson:"lastUpdated" json:"last_updated"`
}

// LikedByList splits the comma-joined LikedBy column into user ids.
func (p *Post) LikedByList() []string {
	if p.LikedBy == "" {
		return nil
	}
	return strings.Split(p.LikedBy, ",")
}

// SetLikedByList replaces the LikedBy column from a slice of user ids.
func (p *Post) SetLikedByList(ids []string) {
	p.LikedBy = strings.Join(ids, ",")
}

// IsLikedBy reports whether userID is present in the liked-by set.
func (p *Post) IsLikedBy(userID string) bool {
	for _, id := range p.LikedByList() {
		if id == userID {
			return true
		}
	}
	return false
}

// NowMillis returns the current wall clock as unix milliseconds, the
// timestamp unit shared by the cache rows and the remote documents.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
