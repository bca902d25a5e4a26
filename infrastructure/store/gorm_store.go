// Package store provides the GORM-backed persistence adapter for oysters,
// reviews and reviewer credibility.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

// DefaultCredibility is used for reviews whose author has no reviewer row.
const DefaultCredibility = 1.0

var _ ports.OysterStore = (*GormStore)(nil)

// ErrUnsupportedDriver is returned by Open for drivers other than sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string) (*gorm.DB, error) {
	if driver != "sqlite" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, storeError("database", "", "Open", fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err))
	}

	// SQLite allows one writer; a single connection also keeps in-memory
	// databases alive for the life of the pool.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// GormStore implements ports.OysterStore over GORM.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// New returns a store using db. A nil log discards output.
func New(db *gorm.DB, log *zap.Logger) *GormStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormStore{
		db:  db,
		log: log.With(zap.String("component", "gorm_store")),
		now: time.Now,
	}
}

// Migrate creates or updates the oysters, reviewers and reviews tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&oysterRow{}, &reviewerRow{}, &reviewRow{}); err != nil {
		return storeError("schema", "", "Migrate", err)
	}
	return nil
}

// ListOysterIDs implements ports.OysterStore.
func (s *GormStore) ListOysterIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&oysterRow{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, storeError("oyster", "", "ListOysterIDs", err)
	}
	return ids, nil
}

// GetOyster implements ports.OysterStore.
func (s *GormStore) GetOyster(ctx context.Context, id uuid.UUID) (*domain.Oyster, error) {
	var row oysterRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("oyster", id.String())
	}
	if err != nil {
		return nil, storeError("oyster", id.String(), "GetOyster", err)
	}
	return row.toDomain(), nil
}

// ListReviews implements ports.OysterStore. Reviews are joined with their
// author's credibility and returned oldest first.
func (s *GormStore) ListReviews(ctx context.Context, oysterID uuid.UUID) ([]domain.Review, error) {
	var rows []reviewWithCredibility
	err := s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, reviewers.credibility AS reviewer_credibility").
		Joins("LEFT JOIN reviewers ON reviewers.id = reviews.reviewer_id").
		Where("reviews.oyster_id = ?", oysterID).
		Order("reviews.created_at, reviews.id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("review", oysterID.String(), "ListReviews", err)
	}

	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		r, err := row.toDomain()
		if err != nil {
			return nil, storeError("review", row.Review.ID.String(), "ListReviews", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveAggregates implements ports.OysterStore with a single UPDATE of the
// aggregate columns. Seed and descriptive columns are never touched.
func (s *GormStore) SaveAggregates(ctx context.Context, oysterID uuid.UUID, result domain.AggregateResult) error {
	tx := s.db.WithContext(ctx).
		Model(&oysterRow{}).
		Where("id = ?", oysterID).
		UpdateColumns(aggregateColumns(result, s.now()))
	if tx.Error != nil {
		return storeError("oyster", oysterID.String(), "SaveAggregates", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return storeError("oyster", oysterID.String(), "SaveAggregates", domain.ErrNotFound)
	}
	return nil
}

// CreateOyster inserts o, assigning an ID when it has none.
func (s *GormStore) CreateOyster(ctx context.Context, o *domain.Oyster) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	row := newOysterRow(o)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storeError("oyster", o.ID.String(), "CreateOyster", err)
	}
	s.log.Debug("oyster created", zap.String("oyster_id", o.ID.String()), zap.String("name", o.Name))
	return nil
}

// SetReviewerCredibility records a reviewer's credibility without touching
// the display name. Unknown reviewers are created without a name.
func (s *GormStore) SetReviewerCredibility(ctx context.Context, id uuid.UUID, credibility float64) error {
	row := reviewerRow{ID: id, Credibility: credibility}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"credibility", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return storeError("reviewer", id.String(), "SetReviewerCredibility", err)
	}
	return nil
}

// UpsertReviewer records a reviewer's credibility, replacing any previous
// value.
func (s *GormStore) UpsertReviewer(ctx context.Context, id uuid.UUID, displayName string, credibility float64) error {
	row := reviewerRow{ID: id, DisplayName: displayName, Credibility: credibility}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "credibility", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return storeError("reviewer", id.String(), "UpsertReviewer", err)
	}
	return nil
}

// CreateReview inserts r, assigning an ID when it has none. The oyster must
// exist.
func (s *GormStore) CreateReview(ctx context.Context, r *domain.Review) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if err := s.requireOyster(ctx, r.OysterID); err != nil {
		return err
	}
	row := newReviewRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storeError("review", r.ID.String(), "CreateReview", err)
	}
	return nil
}

// UpdateReview overwrites the verdict, attributes, notes and quality weight
// of an existing review.
func (s *GormStore) UpdateReview(ctx context.Context, r *domain.Review) error {
	row := newReviewRow(r)
	row.UpdatedAt = s.now()
	tx := s.db.WithContext(ctx).
		Model(&reviewRow{}).
		Where("id = ?", r.ID).
		Select("rating", "size", "body", "sweet_brininess", "flavorfulness", "creaminess", "notes", "quality_weight", "updated_at").
		Updates(&row)
	if tx.Error != nil {
		return storeError("review", r.ID.String(), "UpdateReview", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.NewNotFoundError("review", r.ID.String())
	}
	return nil
}

// SetQualityWeight records a new community quality weight for a review and
// returns the oyster it belongs to.
func (s *GormStore) SetQualityWeight(ctx context.Context, reviewID uuid.UUID, weight float64) (uuid.UUID, error) {
	oysterID, err := s.reviewOyster(ctx, reviewID)
	if err != nil {
		return uuid.Nil, err
	}
	err = s.db.WithContext(ctx).
		Model(&reviewRow{}).
		Where("id = ?", reviewID).
		Updates(map[string]any{"quality_weight": weight, "updated_at": s.now()}).Error
	if err != nil {
		return uuid.Nil, storeError("review", reviewID.String(), "SetQualityWeight", err)
	}
	return oysterID, nil
}

// DeleteReview removes a review and returns the oyster it belonged to.
func (s *GormStore) DeleteReview(ctx context.Context, reviewID uuid.UUID) (uuid.UUID, error) {
	oysterID, err := s.reviewOyster(ctx, reviewID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", reviewID).Delete(&reviewRow{}).Error; err != nil {
		return uuid.Nil, storeError("review", reviewID.String(), "DeleteReview", err)
	}
	return oysterID, nil
}

func (s *GormStore) reviewOyster(ctx context.Context, reviewID uuid.UUID) (uuid.UUID, error) {
	var row reviewRow
	err := s.db.WithContext(ctx).Select("id", "oyster_id").Where("id = ?", reviewID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, domain.NewNotFoundError("review", reviewID.String())
	}
	if err != nil {
		return uuid.Nil, storeError("review", reviewID.String(), "GetReview", err)
	}
	return row.OysterID, nil
}

func (s *GormStore) requireOyster(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&oysterRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return storeError("oyster", id.String(), "GetOyster", err)
	}
	if count == 0 {
		return domain.NewNotFoundError("oyster", id.String())
	}
	return nil
}

// storeError wraps err for the port. An expired deadline is classified as
// ports.ErrTimeout so callers can tell it is retryable.
func storeError(entity, id, operation string, err error) *ports.StoreError {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ports.ErrTimeout) {
		err = fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	return ports.NewStoreError(entity, id, operation, err)
}
