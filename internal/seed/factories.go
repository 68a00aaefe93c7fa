// Package seed populates the remote document store with plausible demo
// data for local development.
package seed

import (
	"fmt"
	"strings"
	"time"

	"studygram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var courseTags = []string{
	"MATH201", "MATH301", "CS101", "CS210", "PHYS110",
	"CHEM120", "BIO150", "ECON200", "STAT230", "PSY101",
}

var difficulties = []models.DifficultyLevel{
	models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard,
}

// NewUser builds a random user profile.
func NewUser() *models.User {
	username := strings.ToLower(gofakeit.Username())
	created := gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()).UnixMilli()
	return &models.User{
		ID:          gofakeit.UUID(),
		Email:       fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		Username:    username,
		YearOfStudy: fmt.Sprintf("%d", gofakeit.Number(1, 5)),
		Degree:      gofakeit.RandomString([]string{"Computer Science", "Mathematics", "Physics", "Biology", "Economics"}),
		CreatedAt:   created,
		LastUpdated: created,
	}
}

// NewPost builds a random study post authored by the given user.
func NewPost(author *models.User) *models.Post {
	ts := gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()).UnixMilli()
	return &models.Post{
		ID:              gofakeit.UUID(),
		UserID:          author.ID,
		AuthorName:      author.Username,
		AuthorImageURL:  author.ProfileImageURL,
		Title:           gofakeit.Sentence(gofakeit.Number(3, 7)),
		Content:         gofakeit.Paragraph(1, gofakeit.Number(2, 5), gofakeit.Number(5, 12), " "),
		CourseTag:       gofakeit.RandomString(courseTags),
		DifficultyLevel: string(difficulties[gofakeit.Number(0, len(difficulties)-1)]),
		Timestamp:       ts,
		LastUpdated:     ts,
	}
}

// NewComment builds a random comment under the given post.
func NewComment(post *models.Post, author *models.User) *models.Comment {
	return &models.Comment{
		ID:             gofakeit.UUID(),
		PostID:         post.ID,
		UserID:         author.ID,
		AuthorName:     author.Username,
		AuthorImageURL: author.ProfileImageURL,
		Content:        gofakeit.Sentence(gofakeit.Number(4, 12)),
		Timestamp:      gofakeit.DateRange(time.UnixMilli(post.Timestamp), time.Now()).UnixMilli(),
	}
}
