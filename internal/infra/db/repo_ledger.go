package db

import (
	"context"
	"errors"

	"provenant/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Upsert records a verdict keyed by (content_hash, registry_address,
// chain_id). Repeat verifications of the same content overwrite the row
// rather than piling up inserts; last-write-wins is safe because the
// verdict is deterministic for identical inputs.
func (r *LedgerRepository) Upsert(ctx context.Context, record domain.VerificationRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if record.ContentHash == "" {
		return errors.New("content_hash is required")
	}

	id, err := newUUID()
	if err != nil {
		return err
	}
	model := VerificationRecordModel{
		ID:              id,
		ContentHash:     record.ContentHash,
		RegistryAddress: record.RegistryAddress,
		ChainID:         record.ChainID,
		ManifestURI:     record.ManifestURI,
		Status:          string(record.Status),
		RecoveredSigner: record.RecoveredSigner,
		OnchainCreator:  record.OnchainCreator,
		VerifiedAt:      record.VerifiedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "content_hash"}, {Name: "registry_address"}, {Name: "chain_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"manifest_uri", "status", "recovered_signer", "onchain_creator", "verified_at",
			}),
		}).
		Create(&model).Error
}

func (r *LedgerRepository) FindByContentHash(ctx context.Context, contentHash string) ([]domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if contentHash == "" {
		return nil, errors.New("content_hash is required")
	}

	var models []VerificationRecordModel
	err := r.db.WithContext(ctx).
		Where("content_hash = ?", domain.NormalizeDigest(contentHash)).
		Order("verified_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, domain.ErrNotFound
	}

	records := make([]domain.VerificationRecord, 0, len(models))
	for _, model := range models {
		records = append(records, domain.VerificationRecord{
			ContentHash:     model.ContentHash,
			ManifestURI:     model.ManifestURI,
			RegistryAddress: model.RegistryAddress,
			ChainID:         model.ChainID,
			Status:          domain.VerdictStatus(model.Status),
			RecoveredSigner: model.RecoveredSigner,
			OnchainCreator:  model.OnchainCreator,
			VerifiedAt:      model.VerifiedAt,
		})
	}
	return records, nil
}
