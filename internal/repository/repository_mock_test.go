package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"feedengine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_FindByID(t *testing.T) {
	tests := []struct {
		name         string
		mockBehavior func(sqlmock.Sqlmock)
		expectedUser *models.User
		expectedCode string
	}{
		{
			name: "Success",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "ann", "ann@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`FROM "users" WHERE "users"."id" = $1`)).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "ann", Email: "ann@example.com"},
		},
		{
			name: "Not Found",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM "users"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
		},
		{
			name: "Store Failure",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM "users"`)).
					WillReturnError(errors.New("connection refused"))
			},
			expectedCode: models.CodeStoreFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			tt.mockBehavior(mock)

			user, err := NewUserRepository(db).FindByID(context.Background(), 1)
			if tt.expectedCode != "" {
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.expectedCode, appErr.Code)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				if tt.expectedUser == nil {
					assert.Nil(t, user)
				} else {
					require.NotNil(t, user)
					assert.Equal(t, tt.expectedUser.Username, user.Username)
					assert.Equal(t, tt.expectedUser.Email, user.Email)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_FindByID_ZeroSkipsQuery(t *testing.T) {
	db, mock := setupMockDB(t)

	user, err := NewUserRepository(db).FindByID(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_ListFollowees(t *testing.T) {
	db, mock := setupMockDB(t)
	rows := sqlmock.NewRows([]string{"followee_id"}).AddRow(2).AddRow(5)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "followee_id" FROM "follows" WHERE follower_id = $1`)).
		WithArgs(1).
		WillReturnRows(rows)

	ids, err := NewFollowRepository(db).ListFollowees(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 5}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_CountLikes_StoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "likes"`)).
		WillReturnError(errors.New("too many connections"))

	_, err := NewEngagementRepository(db).CountLikes(context.Background(), []models.ContentRef{models.PostRef(1)})
	assert.True(t, models.IsStoreFailure(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_EmptyInputsSkipQueries(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	counts, err := repo.CountReplies(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)

	flags, err := repo.LikedBy(ctx, 0, []models.ContentRef{models.PostRef(1)})
	require.NoError(t, err)
	assert.Empty(t, flags)

	edges, err := repo.ListReposts(ctx, []uint{0})
	require.NoError(t, err)
	assert.Empty(t, edges)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"Ann":      "%ann%",
		"100%":     `%100\%%`,
		"snake_ca": `%snake\_ca%`,
		`a\b`:      `%a\\b%`,
	}
	for in, want := range tests {
		assert.Equal(t, want, containsPattern(in), in)
	}
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []uint{3, 1}, uniqueIDs([]uint{3, 0, 1, 3}))
	assert.Empty(t, uniqueIDs(nil))
}
