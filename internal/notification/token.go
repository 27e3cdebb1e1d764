package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceToken is a registered push target for reminder delivery
type DeviceToken struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Token      string    `json:"token" gorm:"uniqueIndex;not null"`
	DeviceInfo string    `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TokenRepository defines the interface for device token operations
type TokenRepository interface {
	SaveToken(token, deviceInfo string) error
	Tokens() ([]string, error)
	DeleteToken(token string) error
}

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new instance of tokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{
		db: db,
	}
}

// SaveToken saves or updates a device token (atomic upsert)
func (r *tokenRepository) SaveToken(token, deviceInfo string) error {
	deviceToken := &DeviceToken{
		ID:         uuid.New().String(),
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_info", "updated_at"}),
	}).Create(deviceToken).Error
}

// Tokens returns every registered device token value
func (r *tokenRepository) Tokens() ([]string, error) {
	var tokens []string
	err := r.db.Model(&DeviceToken{}).Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a specific device token
func (r *tokenRepository) DeleteToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&DeviceToken{}).Error
}
