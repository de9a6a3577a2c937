// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"nextblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with fake users, posts, comments and likes.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())

	if opts.NumUsers <= 0 {
		opts.NumUsers = 25
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 100
	}

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("Seeded %d users", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	log.Printf("Seeded %d posts", len(posts))

	comments, err := createComments(db, users, posts)
	if err != nil {
		return fmt.Errorf("seed comments: %w", err)
	}
	log.Printf("Seeded %d comments", comments)

	likes, err := createLikes(db, users, posts)
	if err != nil {
		return fmt.Errorf("seed likes: %w", err)
	}
	log.Printf("Seeded %d likes", likes)

	return nil
}

func clearData(db *gorm.DB) error {
	return db.Exec("TRUNCATE TABLE comment_likes, likes, comments, post_images, posts, users RESTART IDENTITY CASCADE").Error
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	// A single shared hash keeps seeding fast; every seeded account logs in
	// with "Password123".
	hashed, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) < 3 {
			username = username + "_" + gofakeit.LetterN(3)
		}
		role := models.RoleAuthor
		if i%3 == 0 {
			role = models.RoleReader
		}
		users = append(users, models.User{
			Username: fmt.Sprintf("%s%d", username, i),
			Email:    fmt.Sprintf("%d_%s", i, strings.ToLower(gofakeit.Email())),
			Password: string(hashed),
			Role:     role,
		})
	}
	// The first seeded account is always an admin.
	users[0].Role = models.RoleAdmin

	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	authors := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role.CanPublish() {
			authors = append(authors, u)
		}
	}
	if len(authors) == 0 {
		return nil, fmt.Errorf("no authors among seeded users")
	}

	tagPool := []string{
		"go", "programming", "webdev", "databases", "travel", "food",
		"photography", "music", "books", "opinion", "tutorial", "news",
	}

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := authors[rand.Intn(len(authors))]

		var tags []string
		for _, t := range tagPool {
			if rand.Intn(6) == 0 {
				tags = append(tags, t)
			}
		}

		post := models.Post{
			Title:     gofakeit.Sentence(5),
			Content:   gofakeit.Paragraph(2, 4, 8, "\n\n"),
			UserID:    author.ID,
			Tags:      tags,
			ViewCount: int64(rand.Intn(500)),
			// realistic created_at spread over the last 90 days
			CreatedAt: time.Now().Add(-time.Duration(rand.Intn(90*24)) * time.Hour),
		}
		for p := 0; p < 1+rand.Intn(3); p++ {
			seedID := gofakeit.UUID()
			post.Images = append(post.Images, models.PostImage{
				ImageAsset: models.ImageAsset{
					PublicID: "posts/" + seedID,
					URL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/600", seedID),
					Width:    800,
					Height:   600,
					Format:   "jpg",
					Size:     int64(50000 + rand.Intn(200000)),
				},
				Position: p,
			})
		}
		posts = append(posts, post)
	}

	if err := db.CreateInBatches(&posts, 50).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func createComments(db *gorm.DB, users []models.User, posts []models.Post) (int, error) {
	var comments []models.Comment
	for _, post := range posts {
		for i := 0; i < rand.Intn(6); i++ {
			user := users[rand.Intn(len(users))]
			comments = append(comments, models.Comment{
				Content:   gofakeit.Sentence(8 + rand.Intn(12)),
				UserID:    user.ID,
				PostID:    post.ID,
				CreatedAt: post.CreatedAt.Add(time.Duration(rand.Intn(72)) * time.Hour),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := db.CreateInBatches(&comments, 200).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}

func createLikes(db *gorm.DB, users []models.User, posts []models.Post) (int, error) {
	var likes []models.Like
	for _, post := range posts {
		// pick a random subset of users; the unique index dedupes nothing
		// here because each user appears at most once per post
		perm := rand.Perm(len(users))
		for _, idx := range perm[:rand.Intn(len(users)/2+1)] {
			likes = append(likes, models.Like{
				UserID: users[idx].ID,
				PostID: post.ID,
			})
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	if err := db.CreateInBatches(&likes, 500).Error; err != nil {
		return 0, err
	}
	return len(likes), nil
}
