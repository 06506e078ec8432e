package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotrent/internal/db"
	"spotrent/internal/entities"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/geo"
)

// quadAt builds a small axis-aligned quad with its south-west corner at the
// given point. 0.0002 degrees is roughly 22 m of latitude.
func quadAt(lat, lng float64) []geo.Point {
	const side = 0.0002
	return []geo.Point{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}
}

func validSpotRequest() entities.CreateSpotRequest {
	return entities.CreateSpotRequest{
		Name:          "Backyard A",
		Kind:          db.KindOutdoor,
		Vertices:      quadAt(59.9139, 10.7522),
		HourlyRate:    20,
		AllowAdvance:  true,
		AllowOnDemand: true,
	}
}

func TestCreateSpot(t *testing.T) {
	t.Run("derives bounds and centroid", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		resp, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
		require.NoError(t, err)

		assert.InDelta(t, 59.9141, resp.Bounds.North, 1e-9)
		assert.InDelta(t, 59.9139, resp.Bounds.South, 1e-9)
		assert.InDelta(t, 10.7524, resp.Bounds.East, 1e-9)
		assert.InDelta(t, 10.7522, resp.Bounds.West, 1e-9)
		assert.InDelta(t, 59.9140, resp.Centroid.Lat, 1e-9)
		assert.InDelta(t, 10.7523, resp.Centroid.Lng, 1e-9)
		assert.True(t, resp.Active)
		assert.Equal(t, float64(defaultGPSToleranceM), resp.GPSToleranceM)
	})

	t.Run("wrong vertex count", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		req := validSpotRequest()
		req.Vertices = req.Vertices[:3]
		_, err := svc.CreateSpot(context.Background(), 100, req)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, apperrors.ReasonWrongVertexCount, httpErr.Reason)
	})

	t.Run("self-intersecting boundary", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		req := validSpotRequest()
		// Swap two vertices to produce a bowtie.
		req.Vertices[1], req.Vertices[2] = req.Vertices[2], req.Vertices[1]
		_, err := svc.CreateSpot(context.Background(), 100, req)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, apperrors.ReasonSelfIntersecting, httpErr.Reason)
	})

	t.Run("overlapping an existing spot", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		_, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
		require.NoError(t, err)

		req := validSpotRequest()
		req.Name = "Backyard B"
		// Shift by half a side so the two quads intersect.
		req.Vertices = quadAt(59.9140, 10.7523)
		_, err = svc.CreateSpot(context.Background(), 100, req)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, apperrors.ReasonOverlapsExisting, httpErr.Reason)
	})

	t.Run("disjoint spots coexist", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		_, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
		require.NoError(t, err)

		req := validSpotRequest()
		req.Vertices = quadAt(59.9150, 10.7522)
		_, err = svc.CreateSpot(context.Background(), 100, req)
		assert.NoError(t, err)
	})

	t.Run("invalid kind and rate", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())

		req := validSpotRequest()
		req.Kind = "garage"
		_, err := svc.CreateSpot(context.Background(), 100, req)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 400, httpErr.Code)

		req = validSpotRequest()
		req.HourlyRate = 0
		_, err = svc.CreateSpot(context.Background(), 100, req)
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 400, httpErr.Code)
	})
}

func TestUpdateSpot(t *testing.T) {
	svc := NewSpotService(newFakeSpotStore())
	created, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
	require.NoError(t, err)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rate := 30.0
		resp, err := svc.UpdateSpot(context.Background(), 100, created.ID, entities.UpdateSpotRequest{HourlyRate: &rate})
		require.NoError(t, err)
		assert.Equal(t, 30.0, resp.HourlyRate)
		assert.Equal(t, created.Name, resp.Name)
		assert.Equal(t, created.Vertices, resp.Vertices)
	})

	t.Run("re-tracing re-validates the boundary", func(t *testing.T) {
		// Moving the spot onto itself is fine since its own boundary is
		// excluded from the overlap check.
		resp, err := svc.UpdateSpot(context.Background(), 100, created.ID, entities.UpdateSpotRequest{
			Vertices: quadAt(59.9139, 10.7522),
		})
		require.NoError(t, err)
		assert.InDelta(t, 59.9140, resp.Centroid.Lat, 1e-9)

		_, err = svc.UpdateSpot(context.Background(), 100, created.ID, entities.UpdateSpotRequest{
			Vertices: quadAt(59.9139, 10.7522)[:2],
		})
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, apperrors.ReasonWrongVertexCount, httpErr.Reason)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		name := "Taken over"
		_, err := svc.UpdateSpot(context.Background(), 101, created.ID, entities.UpdateSpotRequest{Name: &name})
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 403, httpErr.Code)
	})
}

func TestDeleteSpot(t *testing.T) {
	t.Run("owner deletes an idle spot", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		created, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
		require.NoError(t, err)
		require.NoError(t, svc.DeleteSpot(context.Background(), 100, created.ID))
		_, err = svc.GetSpot(context.Background(), created.ID)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 404, httpErr.Code)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		svc := NewSpotService(newFakeSpotStore())
		created, err := svc.CreateSpot(context.Background(), 100, validSpotRequest())
		require.NoError(t, err)
		err = svc.DeleteSpot(context.Background(), 101, created.ID)
		var httpErr *apperrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 403, httpErr.Code)
	})
}

func TestSearch(t *testing.T) {
	store := newFakeSpotStore(
		&db.ParkingSpot{ID: 1, Name: "near", CentroidLat: 59.9139, CentroidLng: 10.7522, HourlyRate: 20, Active: true},
		&db.ParkingSpot{ID: 2, Name: "far", CentroidLat: 59.95, CentroidLng: 10.80, HourlyRate: 20, Active: true},
		&db.ParkingSpot{ID: 3, Name: "inactive", CentroidLat: 59.9139, CentroidLng: 10.7522, HourlyRate: 20, Active: false},
	)
	svc := NewSpotService(store)

	t.Run("orders by distance ascending", func(t *testing.T) {
		results, err := svc.Search(context.Background(), 59.914, 10.752, 0, false)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "near", results[0].Spot.Name)
		assert.Equal(t, "far", results[1].Spot.Name)
		assert.Less(t, results[0].DistanceKm, results[1].DistanceKm)
	})

	t.Run("max distance filters", func(t *testing.T) {
		results, err := svc.Search(context.Background(), 59.914, 10.752, 1.0, false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "near", results[0].Spot.Name)
	})

	t.Run("available-only hides spots with a started session", func(t *testing.T) {
		store.occupied[1] = true
		defer delete(store.occupied, 1)

		results, err := svc.Search(context.Background(), 59.914, 10.752, 0, true)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "far", results[0].Spot.Name)

		// Without the flag the occupied spot is still listed.
		results, err = svc.Search(context.Background(), 59.914, 10.752, 0, false)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("nearby uses a tight radius", func(t *testing.T) {
		results, err := svc.Nearby(context.Background(), 59.9139, 10.7522)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "near", results[0].Spot.Name)
	})
}
