package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// GeoPointType is the GeoJSON type of every tour location.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON point with tour metadata. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"required,latlng"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// Value stores the point as JSONB.
func (p GeoPoint) Value() (driver.Value, error) {
	return jsonValue(p)
}

// Scan reads a JSONB point.
func (p *GeoPoint) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// Locations is the JSONB list of stops on a tour.
type Locations []GeoPoint

// Value stores the list as JSONB.
func (l Locations) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]GeoPoint(l))
}

// Scan reads a JSONB list.
func (l *Locations) Scan(src interface{}) error {
	return scanJSON(src, (*[]GeoPoint)(l))
}

// StartDates is the JSONB list of departure times.
type StartDates []time.Time

// Value stores the dates as JSONB.
func (d StartDates) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return jsonValue([]time.Time(d))
}

// Scan reads a JSONB list of timestamps.
func (d *StartDates) Scan(src interface{}) error {
	return scanJSON(src, (*[]time.Time)(d))
}

// jsonValue encodes v as a string; lib/pq would send []byte as bytea.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}

// TourGuide is a guide attached to a tour. Clients send guide ids when
// writing a tour and receive the expanded user on reads.
type TourGuide struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// UnmarshalJSON accepts either a bare id or a guide object.
func (g *TourGuide) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*g = TourGuide{ID: id}
		return nil
	}
	type plain TourGuide
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.New("guides must be user ids")
	}
	*g = TourGuide(p)
	return nil
}

// Tour is a bookable tour.
type Tour struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name" validate:"required,min=10,max=40"`
	Slug            string         `json:"slug"`
	Duration        int            `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int            `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string         `json:"difficulty" validate:"required,difficulty"`
	RatingsAverage  float64        `json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int            `json:"ratingsQuantity" validate:"gte=0"`
	Price           float64        `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64       `json:"priceDiscount,omitempty" validate:"omitempty,gte=0"`
	Summary         string         `json:"summary" validate:"required"`
	Description     string         `json:"description,omitempty"`
	ImageCover      string         `json:"imageCover" validate:"required"`
	Images          pq.StringArray `json:"images"`
	StartDates      StartDates     `json:"startDates"`
	SecretTour      bool           `json:"secretTour"`
	StartLocation   *GeoPoint      `json:"startLocation,omitempty"`
	Locations       Locations      `json:"locations" validate:"dive"`
	Guides          []TourGuide    `json:"guides"`
	Reviews         []*Review      `json:"reviews,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// GetID returns the primary key.
func (t *Tour) GetID() int64 { return t.ID }

// DurationWeeks is the duration expressed in weeks.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the durationWeeks virtual field.
func (t Tour) MarshalJSON() ([]byte, error) {
	type alias Tour
	return json.Marshal(struct {
		alias
		DurationWeeks float64 `json:"durationWeeks"`
	}{alias(t), t.DurationWeeks()})
}

// BeforeSave derives the slug and normalizes user-entered text.
func (t *Tour) BeforeSave() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = utils.Slugify(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Difficulty = strings.ToLower(strings.TrimSpace(t.Difficulty))

	if t.RatingsAverage == 0 && t.RatingsQuantity == 0 {
		t.RatingsAverage = constants.DefaultRatingsAverage
	}
	t.RatingsAverage = utils.RoundTo(t.RatingsAverage, 1)

	if t.StartLocation != nil && t.StartLocation.Type == "" {
		t.StartLocation.Type = GeoPointType
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = GeoPointType
		}
	}
	if t.Images == nil {
		t.Images = pq.StringArray{}
	}
}

// Validate runs the struct rules and the discount check.
func (t *Tour) Validate() error {
	if err := utils.ValidateStruct(t); err != nil {
		return err
	}
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		return utils.NewValidationError("priceDiscount", constants.MsgDiscountTooHigh)
	}
	return nil
}

// GuideIDs returns the ids of the attached guides.
func (t *Tour) GuideIDs() []int64 {
	ids := make([]int64, 0, len(t.Guides))
	seen := make(map[int64]bool, len(t.Guides))
	for _, g := range t.Guides {
		if !seen[g.ID] {
			seen[g.ID] = true
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// TourStats is one difficulty bucket of the tour statistics.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan counts the tour starts of one month.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is a tour's distance from a reference point.
type TourDistance struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// ImageUpdate carries the stored image urls of a multipart tour update.
type ImageUpdate struct {
	ImageCover string
	Images     []string
}

// Apply copies the uploaded image urls onto the tour.
func (u *ImageUpdate) Apply(t *Tour) {
	if u == nil {
		return
	}
	if u.ImageCover != "" {
		t.ImageCover = u.ImageCover
	}
	if len(u.Images) > 0 {
		t.Images = pq.StringArray(u.Images)
	}
}
