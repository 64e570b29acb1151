// Package geo supplies the device position attached to a form.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnavailable = errors.New("geo: position unavailable")

type Position struct {
	Latitude  float64
	Longitude float64
}

// String renders "lat,lon", the format stored on forms.
func (p Position) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Fixed reports a configured position.
type Fixed Position

func (f Fixed) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position(f), nil
}

// Unavailable always fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) CurrentPosition(context.Context) (Position, error) {
	return Position{}, ErrUnavailable
}

// Parse reads "lat,lon".
func Parse(s string) (Position, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Position{}, fmt.Errorf("geo: %q is not \"lat,lon\"", s)
	}
	var p Position
	var err error
	if p.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Position{}, fmt.Errorf("geo: latitude: %w", err)
	}
	if p.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Position{}, fmt.Errorf("geo: longitude: %w", err)
	}
	if !finite(p.Latitude) || !finite(p.Longitude) {
		return Position{}, fmt.Errorf("geo: %q is not a number pair", s)
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return Position{}, fmt.Errorf("geo: %q out of range", s)
	}
	return p, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FromConfig returns a Fixed locator for a configured "lat,lon", or
// Unavailable when none is set.
func FromConfig(location string) (Locator, error) {
	if location == "" {
		return Unavailable{}, nil
	}
	p, err := Parse(location)
	if err != nil {
		return nil, err
	}
	return Fixed(p), nil
}
