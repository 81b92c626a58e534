package models

import (
	"p9e.in/gaugewatch/utils"
)

// DefaultVerificationRadiusMeters applies to sites configured without a radius.
const DefaultVerificationRadiusMeters = 100.0

// Site represents a registered river gauge location.
// Sites are provisioned from configuration and never written at runtime.
type Site struct {
	ID                       string           `json:"id"`   // e.g., "CWC-DL-002"
	Name                     string           `json:"name"` // e.g., "Yamuna Bridge Delhi"
	Location                 utils.Coordinate `json:"location"`
	VerificationRadiusMeters float64          `json:"verificationRadiusMeters"`
}

// ResolvedSite is a Site annotated with its distance from an observer.
type ResolvedSite struct {
	Site
	DistanceMeters float64 `json:"distanceMeters"`
}

// WithinRadius reports whether the observer was inside the site's
// verification radius. The threshold is inclusive.
func (r ResolvedSite) WithinRadius() bool {
	return r.DistanceMeters <= r.VerificationRadiusMeters
}
