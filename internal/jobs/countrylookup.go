package jobs

import (
	"context"
	"encoding/json"

	"github.com/paulmach/orb"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// TaskTypeCountryLookup resolves the country whose bounding box contains the
// geometry's centroid. It is registered under the "analysis" task type.
const TaskTypeCountryLookup = "analysis"

type countryLookupOutput struct {
	Country     string  `json:"country"`
	CentroidLon float64 `json:"centroidLon"`
	CentroidLat float64 `json:"centroidLat"`
}

// countryBox is a coarse bounding box used as a stand-in for full
// administrative boundary polygons; sufficient to exercise geometry parsing
// and centroid computation without a gazetteer dependency.
type countryBox struct {
	name                           string
	minLon, minLat, maxLon, maxLat float64
}

var countryBoxes = []countryBox{
	{"United States", -125, 24, -66, 49},
	{"Brazil", -74, -34, -34, 5},
	{"France", -5, 41, 9, 51},
	{"India", 68, 6, 97, 36},
	{"Australia", 112, -44, 154, -10},
}

// CountryLookup determines the centroid of the task's geoJSON geometry and
// resolves it against a small bounding-box table.
type CountryLookup struct{}

// Run implements registry.Job. The lookup always operates on the task's own
// geoJson payload, matching the polygon-area job's source of truth.
func (CountryLookup) Run(_ context.Context, t *store.Task) (interface{}, error) {
	geom, err := parsePolygon(t.GeoJSON)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	centroid := centroidOf(geom)
	country := "Unknown"
	for _, box := range countryBoxes {
		if centroid.Lon() >= box.minLon && centroid.Lon() <= box.maxLon &&
			centroid.Lat() >= box.minLat && centroid.Lat() <= box.maxLat {
			country = box.name
			break
		}
	}

	out := countryLookupOutput{
		Country:     country,
		CentroidLon: centroid.Lon(),
		CentroidLat: centroid.Lat(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	encoded := string(data)
	t.Output = &encoded
	return out, nil
}

// centroidOf averages the outer-ring vertices of geom. This is a vertex
// centroid, not an area-weighted one, which is adequate for the coarse
// bounding-box lookup above.
func centroidOf(geom orb.Geometry) orb.Point {
	var ring orb.Ring
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			ring = g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			ring = g[0][0]
		}
	}
	if len(ring) == 0 {
		return orb.Point{0, 0}
	}

	var sumLon, sumLat float64
	for _, p := range ring {
		sumLon += p.Lon()
		sumLat += p.Lat()
	}
	n := float64(len(ring))
	return orb.Point{sumLon / n, sumLat / n}
}
