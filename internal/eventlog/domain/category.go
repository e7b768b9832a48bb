package eventlog

import (
	"errors"
	"strings"
)

// Category identifies the sensor a log entry belongs to. It is the
// deduplication key: consecutive-duplicate suppression runs per category.
type Category string

const (
	CategoryWater       Category = "water"
	CategoryUltrasonic  Category = "ultrasonic"
	CategoryTemperature Category = "temperature"
	CategoryHumidity    Category = "humidity"
	CategoryRelay       Category = "relay"
)

// ErrInvalidFilter indicates an empty or malformed category filter.
var ErrInvalidFilter = errors.New("eventlog: invalid category filter")

// ErrUnknownCategory indicates a category outside the closed set.
var ErrUnknownCategory = errors.New("eventlog: unknown category")

// AllCategories returns the closed set of known categories.
func AllCategories() []Category {
	return []Category{
		CategoryWater,
		CategoryUltrasonic,
		CategoryTemperature,
		CategoryHumidity,
		CategoryRelay,
	}
}

// Valid returns true when the category is one of the known five.
func (c Category) Valid() bool {
	switch c {
	case CategoryWater, CategoryUltrasonic, CategoryTemperature, CategoryHumidity, CategoryRelay:
		return true
	default:
		return false
	}
}

// ParseCategories parses a comma-separated filter list. Whitespace and empty
// items are dropped; any unknown category makes the whole filter invalid.
func ParseCategories(value string) ([]Category, error) {
	parts := strings.Split(value, ",")
	categories := make([]Category, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category := Category(part)
		if !category.Valid() {
			return nil, ErrInvalidFilter
		}
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		return nil, ErrInvalidFilter
	}
	return categories, nil
}
