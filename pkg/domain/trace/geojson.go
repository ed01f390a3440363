package trace

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders the trace as a feature collection holding the travelled
// line and the destination point.
func (t *Trace) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := t.Line()
	if line == nil {
		line = orb.LineString{}
	}
	path := geojson.NewFeature(line)
	path.Properties["kind"] = "trace"
	path.Properties["session_id"] = t.SessionID
	path.Properties["user_id"] = t.UserID
	path.Properties["started_at"] = t.StartedAt.UTC().Format(time.RFC3339)
	path.Properties["ended_at"] = t.End().UTC().Format(time.RFC3339)
	path.Properties["distance_m"] = t.DistanceMeters()
	path.Properties["points"] = t.Len()
	fc.Append(path)

	dest := geojson.NewFeature(t.Destination)
	dest.Properties["kind"] = "destination"
	fc.Append(dest)

	return fc.MarshalJSON()
}
