package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sami-patel/geoworkflow/internal/store"
)

const squareFeature = `{
  "type": "Feature",
  "geometry": {
    "type": "Polygon",
    "coordinates": [[[0,0],[0,0.01],[0.01,0.01],[0.01,0],[0,0]]]
  }
}`

func TestPolygonArea_Run_ProducesPositiveAreaInSquareMeters(t *testing.T) {
	task := &store.Task{ID: "t1", TaskType: TaskTypePolygonArea, GeoJSON: squareFeature}

	out, err := (PolygonArea{}).Run(context.Background(), task)
	require.NoError(t, err)

	result, ok := out.(polygonAreaOutput)
	require.True(t, ok)
	assert.Greater(t, result.Area, 0.0)
	assert.Equal(t, "square meters", result.Unit)

	require.NotNil(t, task.Output)
	var decoded polygonAreaOutput
	require.NoError(t, json.Unmarshal([]byte(*task.Output), &decoded))
	assert.Equal(t, result.Area, decoded.Area)
}

func TestPolygonArea_Run_RejectsInvalidGeoJSON(t *testing.T) {
	task := &store.Task{ID: "t1", TaskType: TaskTypePolygonArea, GeoJSON: "not json"}

	_, err := (PolygonArea{}).Run(context.Background(), task)
	assert.Error(t, err)
}
