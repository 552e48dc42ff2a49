package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"igrelations/pkg/models"
)

// DefaultTable is the table the loader appends to
const DefaultTable = "Main_Instagram_Data"

// Row is one line of the profile table. Column names follow the existing
// schema, not the export columns.
type Row struct {
	PKDefInsta     int64     `gorm:"column:pk_def_insta"`
	Username       *string   `gorm:"column:username"`
	Fullname       *string   `gorm:"column:fullname"`
	ProfilePicture *string   `gorm:"column:profile_picture"`
	IsPrivate      bool      `gorm:"column:is_private"`
	MediaPostTotal int       `gorm:"column:media_post_total"`
	Followers      int       `gorm:"column:followers"`
	Following      int       `gorm:"column:following"`
	Biography      *string   `gorm:"column:biography"`
	IsMutual       bool      `gorm:"column:is_mutual"`
	LastUpdate     time.Time `gorm:"column:last_update"`
}

// TableName is the table used when no other is given
func (Row) TableName() string { return DefaultTable }

// NewRow maps a record onto the table. The sequence id is dropped and
// lastUpdate is truncated to whole seconds.
func NewRow(rec models.EnrichedRecord, isMutual bool, lastUpdate time.Time) Row {
	return Row{
		PKDefInsta:     int64(rec.PK),
		Username:       rec.Username,
		Fullname:       rec.FullName,
		ProfilePicture: rec.ProfilePicURLHD,
		IsPrivate:      rec.IsPrivate,
		MediaPostTotal: rec.MediaCount,
		Followers:      rec.FollowerCount,
		Following:      rec.FollowingCount,
		Biography:      rec.Biography,
		IsMutual:       isMutual,
		LastUpdate:     lastUpdate.Truncate(time.Second),
	}
}

// Append inserts rows into table in batches of batchSize. Nothing is
// updated or deleted; an empty slice issues no statement.
func Append(ctx context.Context, db *gorm.DB, table string, rows []Row, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if table == "" {
		table = DefaultTable
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}

	result := db.WithContext(ctx).Table(table).CreateInBatches(rows, batchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, result.Error)
	}
	return result.RowsAffected, nil
}
