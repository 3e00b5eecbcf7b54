package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultStart is where an empty archive begins reading history.
var DefaultStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Message is one archived chat message. ID is the chat message id.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ChannelID string    `gorm:"size:64;not null;index" json:"channel_id"`
	Author    string    `gorm:"size:255;not null" json:"author"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// Migrate creates or updates the messages table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Message{})
}

// SaveMessages inserts messages, skipping ids that are already archived.
// It returns how many rows were new.
func SaveMessages(db *gorm.DB, messages []Message) (int64, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&messages)
	return res.RowsAffected, res.Error
}

// LastMessageTime is the newest archived timestamp, or DefaultStart for an
// empty archive.
func LastMessageTime(db *gorm.DB) (time.Time, error) {
	var msg Message
	err := db.Order("created_at DESC").First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultStart, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return msg.CreatedAt.UTC(), nil
}

// LastMessageID is the newest archived id in a channel; ok is false when the
// channel has nothing archived yet.
func LastMessageID(db *gorm.DB, channelID string) (id uint64, ok bool, err error) {
	var msg Message
	err = db.Where("channel_id = ?", channelID).Order("id DESC").First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return msg.ID, true, nil
}

// CountMessages returns how many messages are archived for a channel.
func CountMessages(db *gorm.DB, channelID string) (int64, error) {
	var count int64
	if err := db.Model(&Message{}).Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
