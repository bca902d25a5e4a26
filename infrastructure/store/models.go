package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

// oysterRow is the persisted form of an oyster. Seed columns are written by
// catalog tooling only; aggregate columns are written by SaveAggregates.
type oysterRow struct {
	ID      uuid.UUID `gorm:"type:text;primaryKey"`
	Name    string    `gorm:"column:name;not null;index"`
	Species string    `gorm:"column:species"`
	Origin  string    `gorm:"column:origin"`

	SeedSize           float64 `gorm:"column:seed_size;not null"`
	SeedBody           float64 `gorm:"column:seed_body;not null"`
	SeedSweetBrininess float64 `gorm:"column:seed_sweet_brininess;not null"`
	SeedFlavorfulness  float64 `gorm:"column:seed_flavorfulness;not null"`
	SeedCreaminess     float64 `gorm:"column:seed_creaminess;not null"`

	TotalReviews      int     `gorm:"column:total_reviews;not null;default:0"`
	AvgRating         float64 `gorm:"column:avg_rating;not null;default:0"`
	AvgSize           float64 `gorm:"column:avg_size;not null;default:0"`
	AvgBody           float64 `gorm:"column:avg_body;not null;default:0"`
	AvgSweetBrininess float64 `gorm:"column:avg_sweet_brininess;not null;default:0"`
	AvgFlavorfulness  float64 `gorm:"column:avg_flavorfulness;not null;default:0"`
	AvgCreaminess     float64 `gorm:"column:avg_creaminess;not null;default:0"`
	OverallScore      float64 `gorm:"column:overall_score;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (oysterRow) TableName() string { return "oysters" }

// reviewerRow holds the externally computed credibility of a reviewer.
type reviewerRow struct {
	ID          uuid.UUID `gorm:"type:text;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	Credibility float64   `gorm:"column:credibility;not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (reviewerRow) TableName() string { return "reviewers" }

// reviewRow stores the verdict by label so unknown labels survive a round
// trip and are reported by the engine rather than dropped by the store.
type reviewRow struct {
	ID         uuid.UUID `gorm:"type:text;primaryKey"`
	OysterID   uuid.UUID `gorm:"type:text;column:oyster_id;not null;index"`
	ReviewerID uuid.UUID `gorm:"type:text;column:reviewer_id;not null;index"`
	Rating     string    `gorm:"column:rating;not null"`

	Size           *float64 `gorm:"column:size"`
	Body           *float64 `gorm:"column:body"`
	SweetBrininess *float64 `gorm:"column:sweet_brininess"`
	Flavorfulness  *float64 `gorm:"column:flavorfulness"`
	Creaminess     *float64 `gorm:"column:creaminess"`
	Notes          string   `gorm:"column:notes"`
	QualityWeight  *float64 `gorm:"column:quality_weight"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (reviewRow) TableName() string { return "reviews" }

// reviewWithCredibility is the result row of the review/reviewer join.
type reviewWithCredibility struct {
	Review              reviewRow `gorm:"embedded"`
	ReviewerCredibility *float64  `gorm:"column:reviewer_credibility"`
}

func newOysterRow(o *domain.Oyster) oysterRow {
	return oysterRow{
		ID:                 o.ID,
		Name:               o.Name,
		Species:            o.Species,
		Origin:             o.Origin,
		SeedSize:           o.SeedSize,
		SeedBody:           o.SeedBody,
		SeedSweetBrininess: o.SeedSweetBrininess,
		SeedFlavorfulness:  o.SeedFlavorfulness,
		SeedCreaminess:     o.SeedCreaminess,
		TotalReviews:       o.Aggregates.TotalReviews,
		AvgRating:          o.Aggregates.AvgRating,
		AvgSize:            o.Aggregates.AvgSize,
		AvgBody:            o.Aggregates.AvgBody,
		AvgSweetBrininess:  o.Aggregates.AvgSweetBrininess,
		AvgFlavorfulness:   o.Aggregates.AvgFlavorfulness,
		AvgCreaminess:      o.Aggregates.AvgCreaminess,
		OverallScore:       o.Aggregates.OverallScore,
	}
}

func (r oysterRow) toDomain() *domain.Oyster {
	return &domain.Oyster{
		ID:                 r.ID,
		Name:               r.Name,
		Species:            r.Species,
		Origin:             r.Origin,
		SeedSize:           r.SeedSize,
		SeedBody:           r.SeedBody,
		SeedSweetBrininess: r.SeedSweetBrininess,
		SeedFlavorfulness:  r.SeedFlavorfulness,
		SeedCreaminess:     r.SeedCreaminess,
		Aggregates: domain.AggregateResult{
			TotalReviews:      r.TotalReviews,
			AvgRating:         r.AvgRating,
			AvgSize:           r.AvgSize,
			AvgBody:           r.AvgBody,
			AvgSweetBrininess: r.AvgSweetBrininess,
			AvgFlavorfulness:  r.AvgFlavorfulness,
			AvgCreaminess:     r.AvgCreaminess,
			OverallScore:      r.OverallScore,
		},
	}
}

func newReviewRow(r *domain.Review) reviewRow {
	return reviewRow{
		ID:             r.ID,
		OysterID:       r.OysterID,
		ReviewerID:     r.ReviewerID,
		Rating:         string(r.Rating),
		Size:           r.Size,
		Body:           r.Body,
		SweetBrininess: r.SweetBrininess,
		Flavorfulness:  r.Flavorfulness,
		Creaminess:     r.Creaminess,
		Notes:          r.Notes,
		QualityWeight:  r.QualityWeight,
	}
}

// toDomain fails with ports.ErrCorruptRecord for rows no review could have
// been written as: a missing ID, oyster or verdict label.
func (j reviewWithCredibility) toDomain() (domain.Review, error) {
	r := j.Review
	switch {
	case r.ID == uuid.Nil:
		return domain.Review{}, fmt.Errorf("%w: review without id", ports.ErrCorruptRecord)
	case r.OysterID == uuid.Nil:
		return domain.Review{}, fmt.Errorf("%w: review %s has no oyster", ports.ErrCorruptRecord, r.ID)
	case r.Rating == "":
		return domain.Review{}, fmt.Errorf("%w: review %s has no rating", ports.ErrCorruptRecord, r.ID)
	}

	credibility := DefaultCredibility
	if j.ReviewerCredibility != nil {
		credibility = *j.ReviewerCredibility
	}
	return domain.Review{
		ID:                  r.ID,
		OysterID:            r.OysterID,
		ReviewerID:          r.ReviewerID,
		Rating:              domain.Rating(r.Rating),
		Size:                r.Size,
		Body:                r.Body,
		SweetBrininess:      r.SweetBrininess,
		Flavorfulness:       r.Flavorfulness,
		Creaminess:          r.Creaminess,
		Notes:               r.Notes,
		QualityWeight:       r.QualityWeight,
		ReviewerCredibility: credibility,
	}, nil
}

func aggregateColumns(res domain.AggregateResult, now time.Time) map[string]any {
	return map[string]any{
		"total_reviews":       res.TotalReviews,
		"avg_rating":          res.AvgRating,
		"avg_size":            res.AvgSize,
		"avg_body":            res.AvgBody,
		"avg_sweet_brininess": res.AvgSweetBrininess,
		"avg_flavorfulness":   res.AvgFlavorfulness,
		"avg_creaminess":      res.AvgCreaminess,
		"overall_score":       res.OverallScore,
		"updated_at":          now,
	}
}
