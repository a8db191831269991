package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteSchema mirrors the notes table owned by the notes service. Only the
// owner reference is read here.
type NoteSchema struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"column:user_id;not null;index"`
	Title  string
}

// TableName specifies the table name for the NoteSchema model.
func (NoteSchema) TableName() string {
	return "notes"
}

// NoteRepoPG answers note ownership questions using GORM.
type NoteRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewNoteRepoPG creates a new instance of NoteRepoPG.
func NewNoteRepoPG(db *gorm.DB, log *zap.Logger) *NoteRepoPG {
	return &NoteRepoPG{db: db, log: log}
}

// ExistsForUser reports whether at least one note references userID.
func (r *NoteRepoPG) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&NoteSchema{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		r.log.Error("failed to count notes for user", zap.Error(err), zap.String("user_id", userID))
		return false, fmt.Errorf("failed to check notes: %w", err)
	}

	return count > 0, nil
}
