package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

func validTour() *models.Tour {
	return &models.Tour{
		Name:         "  The Forest Hiker ",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   "Easy",
		Price:        397,
		Summary:      "  Breathtaking hike through the Canadian Banff National Park ",
		ImageCover:   "tour-1-cover.jpg",
		StartLocation: &models.GeoPoint{
			Coordinates: []float64{-115.570154, 51.178456},
			Address:     "224 Banff Ave, Banff, AB, Canada",
		},
		Locations: models.Locations{
			{Coordinates: []float64{-116.214531, 51.417611}, Day: 1},
		},
	}
}

func TestTour_BeforeSave(t *testing.T) {
	tour := validTour()
	tour.BeforeSave()

	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, "easy", tour.Difficulty)
	assert.Equal(t, 4.5, tour.RatingsAverage, "default rating")
	assert.Equal(t, models.GeoPointType, tour.StartLocation.Type)
	assert.Equal(t, models.GeoPointType, tour.Locations[0].Type)
	assert.NotNil(t, tour.Images)
	assert.Equal(t, "Breathtaking hike through the Canadian Banff National Park", tour.Summary)
}

func TestTour_BeforeSaveRoundsRating(t *testing.T) {
	tour := validTour()
	tour.RatingsAverage = 4.666667
	tour.RatingsQuantity = 3
	tour.BeforeSave()
	assert.Equal(t, 4.7, tour.RatingsAverage)
}

func TestTour_Validate(t *testing.T) {
	utils.InitValidator()

	tour := validTour()
	tour.BeforeSave()
	require.NoError(t, tour.Validate())

	t.Run("discount must be below price", func(t *testing.T) {
		tour := validTour()
		tour.BeforeSave()
		discount := 400.0
		tour.PriceDiscount = &discount

		err := tour.Validate()
		require.Error(t, err)
		appErr, ok := err.(*utils.AppError)
		require.True(t, ok)
		assert.Equal(t, "priceDiscount", appErr.Field)
	})

	t.Run("short name", func(t *testing.T) {
		tour := validTour()
		tour.Name = "Short"
		tour.BeforeSave()
		assert.Error(t, tour.Validate())
	})

	t.Run("unknown difficulty", func(t *testing.T) {
		tour := validTour()
		tour.Difficulty = "extreme"
		tour.BeforeSave()
		assert.Error(t, tour.Validate())
	})

	t.Run("bad coordinates", func(t *testing.T) {
		tour := validTour()
		tour.StartLocation.Coordinates = []float64{200, 95}
		tour.BeforeSave()
		assert.Error(t, tour.Validate())
	})
}

func TestTour_JSON(t *testing.T) {
	tour := validTour()
	tour.Duration = 14
	tour.Guides = []models.TourGuide{{ID: 3, Name: "Steven"}}

	data, err := json.Marshal(tour)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2.0, out["durationWeeks"])
	assert.Equal(t, "tour-1-cover.jpg", out["imageCover"])
	assert.Contains(t, out, "maxGroupSize")
}

func TestTourGuide_UnmarshalIDs(t *testing.T) {
	var tour models.Tour
	require.NoError(t, json.Unmarshal([]byte(`{"guides":[5, {"id":6,"name":"Kate"}]}`), &tour))

	assert.Equal(t, []int64{5, 6}, tour.GuideIDs())
	assert.Equal(t, "Kate", tour.Guides[1].Name)

	err := json.Unmarshal([]byte(`{"guides":["x"]}`), &tour)
	assert.Error(t, err)
}

func TestLocations_ScanValue(t *testing.T) {
	locs := models.Locations{{Type: "Point", Coordinates: []float64{1, 2}, Day: 3}}
	v, err := locs.Value()
	require.NoError(t, err)

	var back models.Locations
	require.NoError(t, back.Scan(v))
	assert.Equal(t, locs, back)

	var empty models.Locations
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
	assert.Error(t, empty.Scan(42))
}

func TestImageUpdate_Apply(t *testing.T) {
	tour := validTour()
	(&models.ImageUpdate{ImageCover: "new.jpeg", Images: []string{"a.jpeg"}}).Apply(tour)
	assert.Equal(t, "new.jpeg", tour.ImageCover)
	assert.Equal(t, []string{"a.jpeg"}, []string(tour.Images))

	var nilUpdate *models.ImageUpdate
	nilUpdate.Apply(tour)
	assert.Equal(t, "new.jpeg", tour.ImageCover)
}
