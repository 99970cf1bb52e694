// Package jobs holds the registry.Job implementations: the concrete task
// types a workflow step can name.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// TaskTypePolygonArea computes the surface area of the task's geoJSON polygon.
const TaskTypePolygonArea = "polygonArea"

type polygonAreaOutput struct {
	Area float64 `json:"area"`
	Unit string  `json:"unit"`
}

// PolygonArea measures the area of a GeoJSON polygon or multipolygon feature
// in square meters, using a geodesic area computation rather than a flat
// planar approximation.
type PolygonArea struct{}

// Run implements registry.Job.
func (PolygonArea) Run(_ context.Context, t *store.Task) (interface{}, error) {
	geom, err := parsePolygon(t.GeoJSON)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	var area float64
	switch g := geom.(type) {
	case orb.Polygon:
		area = geo.Area(g)
	case orb.MultiPolygon:
		for _, poly := range g {
			area += geo.Area(poly)
		}
	default:
		return nil, apierr.JobError("%s: geometry type %T is not a polygon or multipolygon", t.TaskType, geom)
	}
	if area < 0 {
		area = -area
	}

	out := polygonAreaOutput{Area: area, Unit: "square meters"}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	encoded := string(data)
	t.Output = &encoded
	return out, nil
}

// parsePolygon accepts either a bare Feature or a raw Geometry as the task's
// geoJSON payload, since workflow submitters may supply either.
func parsePolygon(raw string) (orb.Geometry, error) {
	if feature, err := geojson.UnmarshalFeature([]byte(raw)); err == nil {
		return feature.Geometry, nil
	}
	geom, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return geom.Geometry(), nil
}
