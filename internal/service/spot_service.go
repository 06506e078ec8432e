package service

import (
	"context"
	"errors"
	"sort"

	"gopkg.in/guregu/null.v4"

	"spotrent/internal/db"
	"spotrent/internal/entities"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/geo"
	"spotrent/internal/pricing"
	"spotrent/internal/repository"
)

const (
	defaultGPSToleranceM = 50
	// Radius for the map-rendering nearby lookup.
	nearbyRadiusMeters = 50
)

// SpotService owns parking spot publication: boundary validation, derived
// bounding box and centroid, rate/flag updates and proximity search.
type SpotService struct {
	spots SpotStore
}

func NewSpotService(spots SpotStore) *SpotService {
	return &SpotService{spots: spots}
}

// CreateSpot validates the traced boundary against all other active spots
// and derives the bounding box and centroid. No partial state is committed
// on rejection.
func (s *SpotService) CreateSpot(ctx context.Context, ownerID int, req entities.CreateSpotRequest) (*entities.SpotResponse, error) {
	if req.Kind != db.KindOutdoor && req.Kind != db.KindIndoor {
		return nil, apperrors.Validation("kind must be outdoor or indoor")
	}
	if req.HourlyRate <= 0 {
		return nil, apperrors.Validation("hourly_rate must be positive")
	}

	quad, err := s.validatedQuad(ctx, req.Vertices, 0)
	if err != nil {
		return nil, err
	}

	bounds := geo.BoundsOf(*quad)
	centroid := geo.Centroid(*quad)

	spot := &db.ParkingSpot{
		OwnerID:       ownerID,
		Name:          req.Name,
		Kind:          req.Kind,
		Boundary:      *quad,
		BoundsNorth:   bounds.North,
		BoundsSouth:   bounds.South,
		BoundsEast:    bounds.East,
		BoundsWest:    bounds.West,
		CentroidLat:   centroid.Lat,
		CentroidLng:   centroid.Lng,
		HourlyRate:    req.HourlyRate,
		AllowAdvance:  req.AllowAdvance,
		AllowOnDemand: req.AllowOnDemand,
		Active:        true,
		GPSToleranceM: defaultGPSToleranceM,
	}
	if req.PerMinuteRate != nil {
		spot.PerMinuteRate = null.FloatFrom(*req.PerMinuteRate)
	}
	if req.GPSToleranceM != nil {
		spot.GPSToleranceM = *req.GPSToleranceM
	}

	if err := s.spots.CreateSpot(ctx, spot); err != nil {
		return nil, err
	}
	return toSpotResponse(spot), nil
}

func (s *SpotService) GetSpot(ctx context.Context, id int) (*entities.SpotResponse, error) {
	spot, err := s.spots.GetSpotByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}
	return toSpotResponse(spot), nil
}

// UpdateSpot applies partial changes. A new boundary is re-validated and the
// bounding box and centroid recomputed.
func (s *SpotService) UpdateSpot(ctx context.Context, ownerID, id int, req entities.UpdateSpotRequest) (*entities.SpotResponse, error) {
	spot, err := s.spots.GetSpotByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}
	if spot.OwnerID != ownerID {
		return nil, apperrors.Forbidden("only the owner may update a spot")
	}

	if req.Vertices != nil {
		quad, err := s.validatedQuad(ctx, req.Vertices, spot.ID)
		if err != nil {
			return nil, err
		}
		bounds := geo.BoundsOf(*quad)
		centroid := geo.Centroid(*quad)
		spot.Boundary = *quad
		spot.BoundsNorth = bounds.North
		spot.BoundsSouth = bounds.South
		spot.BoundsEast = bounds.East
		spot.BoundsWest = bounds.West
		spot.CentroidLat = centroid.Lat
		spot.CentroidLng = centroid.Lng
	}
	if req.Name != nil {
		spot.Name = *req.Name
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate <= 0 {
			return nil, apperrors.Validation("hourly_rate must be positive")
		}
		spot.HourlyRate = *req.HourlyRate
	}
	if req.PerMinuteRate != nil {
		spot.PerMinuteRate = null.FloatFrom(*req.PerMinuteRate)
	}
	if req.AllowAdvance != nil {
		spot.AllowAdvance = *req.AllowAdvance
	}
	if req.AllowOnDemand != nil {
		spot.AllowOnDemand = *req.AllowOnDemand
	}
	if req.Active != nil {
		spot.Active = *req.Active
	}
	if req.GPSToleranceM != nil {
		spot.GPSToleranceM = *req.GPSToleranceM
	}

	if err := s.spots.UpdateSpot(ctx, spot); err != nil {
		return nil, err
	}
	return toSpotResponse(spot), nil
}

// DeleteSpot removes a spot, refused while any booking is in a live status.
func (s *SpotService) DeleteSpot(ctx context.Context, ownerID, id int) error {
	spot, err := s.spots.GetSpotByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("parking spot not found")
		}
		return err
	}
	if spot.OwnerID != ownerID {
		return apperrors.Forbidden("only the owner may delete a spot")
	}

	live, err := s.spots.HasLiveBookings(ctx, id)
	if err != nil {
		return err
	}
	if live {
		return apperrors.BusinessRule(apperrors.ReasonSpotHasLiveBookings, "spot still has live bookings")
	}
	return s.spots.DeleteSpot(ctx, id)
}

// Search ranks active spots by haversine distance from the query point,
// ascending. maxKm <= 0 means no hard distance filter. availableOnly
// additionally excludes spots held by a running session.
func (s *SpotService) Search(ctx context.Context, lat, lng, maxKm float64, availableOnly bool) ([]entities.SearchResult, error) {
	spots, err := s.spots.ListActiveSpots(ctx, availableOnly)
	if err != nil {
		return nil, err
	}

	results := make([]entities.SearchResult, 0, len(spots))
	for i := range spots {
		d := geo.DistanceKm(lat, lng, spots[i].CentroidLat, spots[i].CentroidLng)
		if maxKm > 0 && d > maxKm {
			continue
		}
		results = append(results, entities.SearchResult{Spot: *toSpotResponse(&spots[i]), DistanceKm: d})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].DistanceKm < results[j].DistanceKm })
	return results, nil
}

// Nearby returns active spots within 50 m of the point, for map rendering.
func (s *SpotService) Nearby(ctx context.Context, lat, lng float64) ([]entities.SearchResult, error) {
	return s.Search(ctx, lat, lng, nearbyRadiusMeters/1000.0, false)
}

func (s *SpotService) validatedQuad(ctx context.Context, vertices []geo.Point, excludeID int) (*geo.Quad, error) {
	if len(vertices) != 4 {
		return nil, apperrors.BusinessRule(apperrors.ReasonWrongVertexCount, "boundary must have exactly 4 vertices")
	}
	var quad geo.Quad
	copy(quad[:], vertices)

	existing, err := s.spots.ListActiveBoundaries(ctx, excludeID)
	if err != nil {
		return nil, err
	}
	if err := geo.ValidateBoundary(quad, existing); err != nil {
		switch {
		case errors.Is(err, geo.ErrSelfIntersecting):
			return nil, apperrors.BusinessRule(apperrors.ReasonSelfIntersecting, "boundary polygon is self-intersecting")
		case errors.Is(err, geo.ErrOverlapsExisting):
			return nil, apperrors.BusinessRule(apperrors.ReasonOverlapsExisting, "boundary overlaps an existing spot")
		default:
			return nil, err
		}
	}
	return &quad, nil
}

func toSpotResponse(s *db.ParkingSpot) *entities.SpotResponse {
	return &entities.SpotResponse{
		ID:       s.ID,
		OwnerID:  s.OwnerID,
		Name:     s.Name,
		Kind:     s.Kind,
		Vertices: s.Boundary[:],
		Bounds: geo.Bounds{
			North: s.BoundsNorth,
			South: s.BoundsSouth,
			East:  s.BoundsEast,
			West:  s.BoundsWest,
		},
		Centroid:      geo.Point{Lat: s.CentroidLat, Lng: s.CentroidLng},
		HourlyRate:    s.HourlyRate,
		PerMinuteRate: pricing.PerMinuteRate(s.HourlyRate, s.PerMinuteRate),
		AllowAdvance:  s.AllowAdvance,
		AllowOnDemand: s.AllowOnDemand,
		Active:        s.Active,
		GPSToleranceM: s.GPSToleranceM,
	}
}
