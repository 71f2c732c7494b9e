package db

import "time"

type VerificationJobModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Type            string `gorm:"index;not null"`
	ContentHash     string `gorm:"index"`
	ManifestURI     string `gorm:"not null"`
	RegistryAddress string
	RPCURL          string
	Status          string `gorm:"index;not null"`
	Progress        int    `gorm:"not null"`
	Result          []byte `gorm:"type:jsonb"`
	Error           string
	RetryCount      int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

func (VerificationJobModel) TableName() string { return "verification_jobs" }

type VerificationRecordModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	ContentHash     string `gorm:"uniqueIndex:idx_verifications_key;not null"`
	RegistryAddress string `gorm:"uniqueIndex:idx_verifications_key"`
	ChainID         int64  `gorm:"uniqueIndex:idx_verifications_key"`
	ManifestURI     string `gorm:"not null"`
	Status          string `gorm:"not null"`
	RecoveredSigner string
	OnchainCreator  string
	VerifiedAt      time.Time `gorm:"index;not null"`
}

func (VerificationRecordModel) TableName() string { return "verifications" }
