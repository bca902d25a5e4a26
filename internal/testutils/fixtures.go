package testutils

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ahrav/go-brine/internal/domain"
)

// Float returns a pointer to v, for optional review fields.
func Float(v float64) *float64 { return &v }

// NewOyster returns an oyster with every seed set to seed.
func NewOyster(name string, seed float64) domain.Oyster {
	return domain.Oyster{
		ID:                 uuid.New(),
		Name:               name,
		SeedSize:           seed,
		SeedBody:           seed,
		SeedSweetBrininess: seed,
		SeedFlavorfulness:  seed,
		SeedCreaminess:     seed,
	}
}

// NewReview returns a review scoring every attribute v with unit quality
// weight and credibility.
func NewReview(rating domain.Rating, v float64) domain.Review {
	return domain.Review{
		ID:                  uuid.New(),
		ReviewerID:          uuid.New(),
		Rating:              rating,
		Size:                Float(v),
		Body:                Float(v),
		SweetBrininess:      Float(v),
		Flavorfulness:       Float(v),
		Creaminess:          Float(v),
		QualityWeight:       Float(domain.DefaultQualityWeight),
		ReviewerCredibility: 1,
	}
}

// Catalog is a generated set of oysters and their reviews.
type Catalog struct {
	Oysters []domain.Oyster
	Reviews map[uuid.UUID][]domain.Review
}

// GenerateCatalog builds a reproducible catalog of size oysters with up to
// maxReviews reviews each. Values stay inside the documented ranges:
// attributes in [1,10], quality weights in [0.4,1.5] and credibility in
// [0.5,1.5]. Roughly one attribute in six is left blank.
func GenerateCatalog(size, maxReviews int, seed int64) *Catalog {
	rng := rand.New(rand.NewSource(seed))
	ratings := domain.Ratings()

	cat := &Catalog{
		Oysters: make([]domain.Oyster, 0, size),
		Reviews: make(map[uuid.UUID][]domain.Review, size),
	}
	for i := range size {
		o := domain.Oyster{
			ID:                 uuidFrom(rng),
			Name:               fmt.Sprintf("Oyster %03d", i),
			SeedSize:           attr(rng),
			SeedBody:           attr(rng),
			SeedSweetBrininess: attr(rng),
			SeedFlavorfulness:  attr(rng),
			SeedCreaminess:     attr(rng),
		}
		cat.Oysters = append(cat.Oysters, o)

		n := 0
		if maxReviews > 0 {
			n = rng.Intn(maxReviews + 1)
		}
		reviews := make([]domain.Review, 0, n)
		for range n {
			r := domain.Review{
				ID:                  uuidFrom(rng),
				OysterID:            o.ID,
				ReviewerID:          uuidFrom(rng),
				Rating:              ratings[rng.Intn(len(ratings))],
				QualityWeight:       Float(0.4 + rng.Float64()*1.1),
				ReviewerCredibility: 0.5 + rng.Float64(),
			}
			for _, a := range domain.Attributes() {
				if rng.Intn(6) == 0 {
					continue
				}
				setAttr(&r, a, attr(rng))
			}
			reviews = append(reviews, r)
		}
		cat.Reviews[o.ID] = reviews
	}
	return cat
}

// Load copies the catalog into store.
func (c *Catalog) Load(store *MemoryStore) {
	for _, o := range c.Oysters {
		store.PutOyster(o)
		store.PutReviews(o.ID, c.Reviews[o.ID]...)
	}
}

func attr(rng *rand.Rand) float64 { return 1 + rng.Float64()*9 }

func uuidFrom(rng *rand.Rand) uuid.UUID {
	var b [16]byte
	_, _ = rng.Read(b[:])
	id, _ := uuid.FromBytes(b[:])
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

func setAttr(r *domain.Review, a domain.Attribute, v float64) {
	switch a {
	case domain.AttributeSize:
		r.Size = Float(v)
	case domain.AttributeBody:
		r.Body = Float(v)
	case domain.AttributeSweetBrininess:
		r.SweetBrininess = Float(v)
	case domain.AttributeFlavorfulness:
		r.Flavorfulness = Float(v)
	case domain.AttributeCreaminess:
		r.Creaminess = Float(v)
	}
}
