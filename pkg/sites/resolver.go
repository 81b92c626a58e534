package sites

import (
	"fmt"

	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/utils"
)

// FindNearestSite returns the site closest to observer, annotated with its
// distance. Equidistant sites resolve to the first one in slice order.
// The boolean is false only when sites is empty.
func FindNearestSite(observer utils.Coordinate, sites []models.Site) (models.ResolvedSite, bool) {
	var (
		nearest models.ResolvedSite
		found   bool
	)

	for _, site := range sites {
		d := utils.Distance(observer, site.Location)
		if !found || d < nearest.DistanceMeters {
			nearest = models.ResolvedSite{Site: site, DistanceMeters: d}
			found = true
		}
	}

	return nearest, found
}

// Resolver answers site questions for a device location against a registry.
// Every call recomputes distances; nothing is cached between locations.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given registry
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Nearest resolves the registered site closest to observer.
func (r *Resolver) Nearest(observer utils.Coordinate) (models.ResolvedSite, error) {
	resolved, ok := FindNearestSite(observer, r.registry.sites)
	if !ok {
		return models.ResolvedSite{}, ErrNoSites
	}
	return resolved, nil
}

// Resolve annotates a specific site with its distance from observer. It is
// used when the field officer picked the site explicitly.
func (r *Resolver) Resolve(siteID string, observer utils.Coordinate) (models.ResolvedSite, error) {
	if r.registry.Len() == 0 {
		return models.ResolvedSite{}, ErrNoSites
	}
	site, ok := r.registry.Get(siteID)
	if !ok {
		return models.ResolvedSite{}, fmt.Errorf("%w: %q", ErrUnknownSite, siteID)
	}
	return models.ResolvedSite{
		Site:           site,
		DistanceMeters: utils.Distance(observer, site.Location),
	}, nil
}

// Registry exposes the registry the resolver works on.
func (r *Resolver) Registry() *Registry {
	return r.registry
}
