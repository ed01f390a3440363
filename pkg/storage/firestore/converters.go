package firestore

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get a number from map; Firestore hands back int64 for
// whole numbers and float64 otherwise.
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getStrings(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		if ss, ok := m[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func pointToFirestore(p orb.Point) map[string]interface{} {
	return map[string]interface{}{
		"longitude": p.Lon(),
		"latitude":  p.Lat(),
	}
}

func getPoint(m map[string]interface{}, key string) orb.Point {
	sub, ok := m[key].(map[string]interface{})
	if !ok {
		return orb.Point{}
	}
	return orb.Point{getFloat(sub, "longitude"), getFloat(sub, "latitude")}
}

// --- UserRecord Converters ---

func UserToFirestore(u *types.UserRecord) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    u.UserID,
		"updated_at": u.UpdatedAt,
	}
	if !u.CreatedAt.IsZero() {
		m["created_at"] = u.CreatedAt
	}
	if u.FCMTokens != nil {
		m["fcm_tokens"] = u.FCMTokens
	}
	return m
}

func FirestoreToUser(m map[string]interface{}) *types.UserRecord {
	return &types.UserRecord{
		UserID:    getString(m, "user_id"),
		FCMTokens: getStrings(m, "fcm_tokens"),
		CreatedAt: getTime(m, "created_at"),
		UpdatedAt: getTime(m, "updated_at"),
	}
}

// --- NavigationSession Converters ---

func NavigationSessionToFirestore(s *types.NavigationSession) map[string]interface{} {
	m := map[string]interface{}{
		"session_id":             s.SessionID,
		"user_id":                s.UserID,
		"status":                 string(s.Status),
		"destination":            pointToFirestore(s.Destination),
		"route_distance_meters":  s.RouteDistanceMeters,
		"route_duration_seconds": s.RouteDurationSeconds,
		"started_at":             s.StartedAt,
		"position_count":         s.PositionCount,
		"travelled_meters":       s.TravelledMeters,
	}
	if s.EndedAt != nil {
		m["ended_at"] = *s.EndedAt
	}
	if s.TraceGeoJSONPath != "" {
		m["trace_geojson_path"] = s.TraceGeoJSONPath
	}
	if s.TraceFITPath != "" {
		m["trace_fit_path"] = s.TraceFITPath
	}
	return m
}

func FirestoreToNavigationSession(m map[string]interface{}) *types.NavigationSession {
	s := &types.NavigationSession{
		SessionID:            getString(m, "session_id"),
		UserID:               getString(m, "user_id"),
		Status:               types.SessionStatus(getString(m, "status")),
		Destination:          getPoint(m, "destination"),
		RouteDistanceMeters:  getFloat(m, "route_distance_meters"),
		RouteDurationSeconds: getFloat(m, "route_duration_seconds"),
		StartedAt:            getTime(m, "started_at"),
		PositionCount:        getInt(m, "position_count"),
		TravelledMeters:      getFloat(m, "travelled_meters"),
		TraceGeoJSONPath:     getString(m, "trace_geojson_path"),
		TraceFITPath:         getString(m, "trace_fit_path"),
	}
	if t := getTime(m, "ended_at"); !t.IsZero() {
		s.EndedAt = &t
	}
	return s
}
