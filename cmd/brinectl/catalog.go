package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-brine/internal/domain"
)

// catalogFile is the document accepted by the load command.
type catalogFile struct {
	Reviewers []reviewerEntry `yaml:"reviewers,omitempty"`
	Oysters   []oysterEntry   `yaml:"oysters"`
}

type reviewerEntry struct {
	ID          uuid.UUID `yaml:"id"`
	Name        string    `yaml:"name"`
	Credibility *float64  `yaml:"credibility,omitempty"`
}

// oysterEntry is an oyster with its reviews inline. The score command reads
// a single entry; the load command reads a list of them.
type oysterEntry struct {
	ID                 uuid.UUID     `yaml:"id"`
	Name               string        `yaml:"name"`
	Species            string        `yaml:"species,omitempty"`
	Origin             string        `yaml:"origin,omitempty"`
	SeedSize           float64       `yaml:"seed_size"`
	SeedBody           float64       `yaml:"seed_body"`
	SeedSweetBrininess float64       `yaml:"seed_sweet_brininess"`
	SeedFlavorfulness  float64       `yaml:"seed_flavorfulness"`
	SeedCreaminess     float64       `yaml:"seed_creaminess"`
	Reviews            []reviewEntry `yaml:"reviews,omitempty"`
}

// reviewEntry differs from domain.Review in that an omitted credibility
// means "unknown" and defaults to 1.
type reviewEntry struct {
	ID             uuid.UUID     `yaml:"id"`
	ReviewerID     uuid.UUID     `yaml:"reviewer_id"`
	Rating         domain.Rating `yaml:"rating"`
	Size           *float64      `yaml:"size,omitempty"`
	Body           *float64      `yaml:"body,omitempty"`
	SweetBrininess *float64      `yaml:"sweet_brininess,omitempty"`
	Flavorfulness  *float64      `yaml:"flavorfulness,omitempty"`
	Creaminess     *float64      `yaml:"creaminess,omitempty"`
	Notes          string        `yaml:"notes,omitempty"`
	QualityWeight  *float64      `yaml:"quality_weight,omitempty"`
	Credibility    *float64      `yaml:"reviewer_credibility,omitempty"`
}

func newOysterEntry(o domain.Oyster, reviews []domain.Review) oysterEntry {
	e := oysterEntry{
		ID:                 o.ID,
		Name:               o.Name,
		Species:            o.Species,
		Origin:             o.Origin,
		SeedSize:           o.SeedSize,
		SeedBody:           o.SeedBody,
		SeedSweetBrininess: o.SeedSweetBrininess,
		SeedFlavorfulness:  o.SeedFlavorfulness,
		SeedCreaminess:     o.SeedCreaminess,
		Reviews:            make([]reviewEntry, 0, len(reviews)),
	}
	for _, r := range reviews {
		credibility := r.ReviewerCredibility
		e.Reviews = append(e.Reviews, reviewEntry{
			ID:             r.ID,
			ReviewerID:     r.ReviewerID,
			Rating:         r.Rating,
			Size:           r.Size,
			Body:           r.Body,
			SweetBrininess: r.SweetBrininess,
			Flavorfulness:  r.Flavorfulness,
			Creaminess:     r.Creaminess,
			Notes:          r.Notes,
			QualityWeight:  r.QualityWeight,
			Credibility:    &credibility,
		})
	}
	return e
}

func (e oysterEntry) toDomain() domain.Oyster {
	return domain.Oyster{
		ID:                 e.ID,
		Name:               e.Name,
		Species:            e.Species,
		Origin:             e.Origin,
		SeedSize:           e.SeedSize,
		SeedBody:           e.SeedBody,
		SeedSweetBrininess: e.SeedSweetBrininess,
		SeedFlavorfulness:  e.SeedFlavorfulness,
		SeedCreaminess:     e.SeedCreaminess,
	}
}

func (e oysterEntry) reviews(oysterID uuid.UUID) []domain.Review {
	out := make([]domain.Review, 0, len(e.Reviews))
	for _, r := range e.Reviews {
		out = append(out, r.toDomain(oysterID))
	}
	return out
}

func (e reviewEntry) toDomain(oysterID uuid.UUID) domain.Review {
	credibility := 1.0
	if e.Credibility != nil {
		credibility = *e.Credibility
	}
	reviewerID := e.ReviewerID
	if reviewerID == uuid.Nil {
		reviewerID = uuid.New()
	}
	return domain.Review{
		ID:                  e.ID,
		OysterID:            oysterID,
		ReviewerID:          reviewerID,
		Rating:              e.Rating,
		Size:                e.Size,
		Body:                e.Body,
		SweetBrininess:      e.SweetBrininess,
		Flavorfulness:       e.Flavorfulness,
		Creaminess:          e.Creaminess,
		Notes:               e.Notes,
		QualityWeight:       e.QualityWeight,
		ReviewerCredibility: credibility,
	}
}

// decodeYAMLFile strictly decodes the YAML document at path into out.
func decodeYAMLFile(path string, out any) error {
	fh, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()

	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty document", path)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
