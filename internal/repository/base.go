// Package repository implements the content store over gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedengine/internal/database"
	"feedengine/internal/models"
	"feedengine/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// readDB routes reads to the replica when one is connected.
func readDB(primary *gorm.DB) *gorm.DB {
	if database.ReadDB != nil {
		return database.ReadDB
	}
	return primary
}

// storeError logs err and converts it into a STORE_FAILURE, carrying the
// SQLSTATE when the driver reports one.
func storeError(ctx context.Context, log *observability.RepoLogger, operation string, err error) error {
	log.LogError(ctx, err, operation)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		err = fmt.Errorf("postgres %s %s: %w", pgErr.Code, pgErr.Message, err)
	}
	return models.NewStoreFailureError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching text anywhere.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}

// splitRefs groups reference ids by kind, dropping duplicates.
func splitRefs(refs []models.ContentRef) (postIDs, commentIDs []uint) {
	seen := make(map[models.ContentRef]struct{}, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		switch ref.Kind {
		case models.KindPost:
			postIDs = append(postIDs, ref.ID)
		case models.KindComment:
			commentIDs = append(commentIDs, ref.ID)
		}
	}
	return postIDs, commentIDs
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// targetExists restricts an engagement table to edges whose target still exists.
func targetExists(table string) (string, []interface{}) {
	clause := fmt.Sprintf(
		"((%[1]s.target_type = ? AND EXISTS (SELECT 1 FROM posts WHERE posts.id = %[1]s.target_id)) OR "+
			"(%[1]s.target_type = ? AND EXISTS (SELECT 1 FROM comments WHERE comments.id = %[1]s.target_id)))",
		table,
	)
	return clause, []interface{}{models.KindPost, models.KindComment}
}
