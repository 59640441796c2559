package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"nearmatch/internal/types"
)

var ErrNoPlace = errors.New("no place found for coordinate")

// placeTypes is the preference order for naming a spot; the first component
// of one of these types wins over the formatted address.
var placeTypes = []string{"point_of_interest", "establishment", "park", "neighborhood", "route", "locality"}

// Geocoder turns coordinates into short human-readable place names.
type Geocoder struct {
	client   *maps.Client
	language string
}

// NewGeocoder creates a Geocoder with the given API Key.
func NewGeocoder(apiKey, language string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, language: language}, nil
}

// PlaceName reverse-geocodes c.
func (g *Geocoder) PlaceName(ctx context.Context, c types.Coordinate) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: c.Lat, Lng: c.Lng},
		Language: g.language,
	})
	if err != nil {
		return "", fmt.Errorf("maps api error: %w", err)
	}
	name := pickPlaceName(results)
	if name == "" {
		return "", ErrNoPlace
	}
	return name, nil
}

func pickPlaceName(results []maps.GeocodingResult) string {
	for _, want := range placeTypes {
		for _, r := range results {
			for _, comp := range r.AddressComponents {
				if hasType(comp.Types, want) && comp.LongName != "" {
					return comp.LongName
				}
			}
		}
	}
	for _, r := range results {
		if r.FormattedAddress != "" {
			return r.FormattedAddress
		}
	}
	return ""
}

func hasType(list []string, want string) bool {
	for _, t := range list {
		if t == want {
			return true
		}
	}
	return false
}
