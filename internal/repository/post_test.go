package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"nextblog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Test Post", Content: "Content", UserID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.MatchExpectationsInOrder(false)

	// main query with count/liked subqueries inlined in the SELECT
	mock.ExpectQuery(`SELECT posts\.\*,.+as comments_count.+as likes_count.+as liked FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "user_id", "view_count", "comments_count", "likes_count", "liked"}).
			AddRow(1, "Post 1", 10, 7, 5, 10, true))

	// preloads; GORM issues these after the main query
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "post_images" WHERE "post_images"."post_id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "public_id", "url", "position"}).
			AddRow(1, 1, "posts/abc", "https://cdn.example.com/posts/abc.jpg", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "user10"))

	post, err := repo.GetByID(ctx, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, "Post 1", post.Title)
	assert.Equal(t, int64(5), post.CommentsCount)
	assert.Equal(t, int64(10), post.LikesCount)
	assert.Equal(t, int64(7), post.ViewCount)
	assert.True(t, post.Liked)
	assert.Len(t, post.Images, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_IncrementViewCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET "view_count"=view_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementViewCount(context.Background(), 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Update_LeavesViewCounterAlone(t *testing.T) {
	// The counter is bumped atomically by IncrementViewCount; saving a post
	// read earlier must not write the stale value back.
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(
		sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
			if !strings.Contains(actualSQL, expectedSQL) {
				return fmt.Errorf("expected %q in %q", expectedSQL, actualSQL)
			}
			if strings.Contains(actualSQL, "view_count") {
				return fmt.Errorf("update statement writes view_count: %s", actualSQL)
			}
			return nil
		})))
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: raw}), &gorm.Config{})
	require.NoError(t, err)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Update(context.Background(), &models.Post{
		ID:        7,
		Title:     "Edited",
		Content:   "Edited content",
		UserID:    2,
		ViewCount: 41,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Like_Idempotent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// ON CONFLICT DO NOTHING: a second like for the same pair affects zero
	// rows but still succeeds.
	mock.ExpectExec(`INSERT INTO likes .+ ON CONFLICT \(user_id, post_id\) DO NOTHING`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO likes .+ ON CONFLICT \(user_id, post_id\) DO NOTHING`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Like(ctx, 2, 1))
	assert.NoError(t, repo.Like(ctx, 2, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Unlike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Unlike(context.Background(), 2, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_IsLiked(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	liked, err := repo.IsLiked(ctx, 2, 1)
	assert.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ReplaceImages(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "post_images" WHERE post_id = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "post_images"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	err := repo.ReplaceImages(context.Background(), 1, []models.PostImage{
		{ImageAsset: models.ImageAsset{PublicID: "posts/new", URL: "https://cdn.example.com/posts/new.jpg"}},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ReplaceImages_EmptySetClearsRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "post_images" WHERE post_id = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.ReplaceImages(context.Background(), 1, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
