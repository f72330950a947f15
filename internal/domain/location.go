package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidLocation is returned when a location is not fully populated.
var ErrInvalidLocation = errors.New("invalid location")

// Location identifies a farm or market by coordinates and administrative area.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	District  string  `json:"district" yaml:"district"`
	State     string  `json:"state" yaml:"state"`
	Pincode   string  `json:"pincode" yaml:"pincode"`
	Village   string  `json:"village,omitempty" yaml:"village,omitempty"`
	Taluka    string  `json:"taluka,omitempty" yaml:"taluka,omitempty"`
}

// Validate reports whether the location is complete enough to hand to a service.
func (l Location) Validate() error {
	switch {
	case strings.TrimSpace(l.District) == "":
		return fmt.Errorf("%w: district is required", ErrInvalidLocation)
	case strings.TrimSpace(l.State) == "":
		return fmt.Errorf("%w: state is required", ErrInvalidLocation)
	case strings.TrimSpace(l.Pincode) == "":
		return fmt.Errorf("%w: pincode is required", ErrInvalidLocation)
	case math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude):
		return fmt.Errorf("%w: coordinates must be numbers", ErrInvalidLocation)
	case l.Latitude < -90 || l.Latitude > 90:
		return fmt.Errorf("%w: latitude %.4f out of range", ErrInvalidLocation, l.Latitude)
	case l.Longitude < -180 || l.Longitude > 180:
		return fmt.Errorf("%w: longitude %.4f out of range", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// ValidateCoordinates checks a bare latitude/longitude pair.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: coordinates must be numbers", ErrInvalidLocation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates %.4f,%.4f out of range", ErrInvalidLocation, lat, lon)
	}
	return nil
}

// UnknownLocation returns a placeholder for records whose origin is not known.
// Coordinates are zero and the administrative fields are "Unknown".
func UnknownLocation() Location {
	return Location{District: "Unknown", State: "Unknown", Pincode: "000000"}
}
