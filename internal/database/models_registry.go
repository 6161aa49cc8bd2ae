package database

import "feedengine/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for foreign keys.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.Like{},
		&models.Repost{},
	}
}
