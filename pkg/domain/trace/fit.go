package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/domain/geo"
)

// semicircles per degree
const semicircleConst = 2147483648.0 / 180.0

func ToSemicircles(deg float64) int32 {
	v := math.Round(deg * semicircleConst)
	// 0x7FFFFFFF is the FIT invalid marker
	if v >= math.MaxInt32 {
		return math.MaxInt32 - 1
	}
	return int32(v)
}

func FromSemicircles(v int32) float64 {
	return float64(v) / semicircleConst
}

// FIT encodes the trace as a driving activity: one record per fix plus a
// single lap and session.
func (t *Trace) FIT() ([]byte, error) {
	if len(t.Points) == 0 {
		return nil, errors.New("trace has no points")
	}

	start := t.StartedAt
	if start.IsZero() {
		start = t.Points[0].Time
	}
	end := t.End()
	elapsedMS := uint32(t.Duration().Milliseconds())

	fit := &proto.FIT{
		Messages: []proto.Message{},
	}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(start)
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	var travelled float64
	for i, p := range t.Points {
		if i > 0 {
			travelled += geo.DistanceMeters(t.Points[i-1].Position, p.Position)
		}
		record := mesgdef.NewRecord(nil).
			SetTimestamp(p.Time).
			SetPositionLat(ToSemicircles(p.Position.Lat())).
			SetPositionLong(ToSemicircles(p.Position.Lon())).
			SetDistance(uint32(math.Round(travelled * 100))) // centimetres
		fit.Messages = append(fit.Messages, record.ToMesg(nil))
	}
	totalDistance := uint32(math.Round(travelled * 100))

	lap := mesgdef.NewLap(nil).
		SetTimestamp(end).
		SetStartTime(start).
		SetTotalElapsedTime(elapsedMS).
		SetTotalTimerTime(elapsedMS).
		SetTotalDistance(totalDistance)
	fit.Messages = append(fit.Messages, lap.ToMesg(nil))

	session := mesgdef.NewSession(nil).
		SetTimestamp(end).
		SetStartTime(start).
		SetSport(typedef.SportDriving).
		SetTotalElapsedTime(elapsedMS).
		SetTotalTimerTime(elapsedMS).
		SetTotalDistance(totalDistance).
		SetNumLaps(1)
	fit.Messages = append(fit.Messages, session.ToMesg(nil))

	activity := mesgdef.NewActivity(nil).
		SetTimestamp(end).
		SetType(typedef.ActivityManual).
		SetNumSessions(1)
	fit.Messages = append(fit.Messages, activity.ToMesg(nil))

	var buf bytes.Buffer
	enc := encoder.New(&buf)
	if err := enc.Encode(fit); err != nil {
		return nil, fmt.Errorf("failed to encode FIT file: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeFIT reads a trace back from a FIT activity. Records without a
// position are skipped.
func DecodeFIT(r io.Reader) (*Trace, error) {
	fit, err := decoder.New(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode FIT file: %w", err)
	}

	t := &Trace{}
	for _, msg := range fit.Messages {
		switch msg.Num {
		case typedef.MesgNumRecord:
			rec := mesgdef.NewRecord(&msg)
			if rec.PositionLat == math.MaxInt32 || rec.PositionLong == math.MaxInt32 {
				continue
			}
			t.Points = append(t.Points, Point{
				Position: orb.Point{FromSemicircles(rec.PositionLong), FromSemicircles(rec.PositionLat)},
				Time:     rec.Timestamp,
			})
		case typedef.MesgNumSession:
			session := mesgdef.NewSession(&msg)
			t.StartedAt = session.StartTime
			t.EndedAt = session.Timestamp
		}
	}
	if t.StartedAt.IsZero() && len(t.Points) > 0 {
		t.StartedAt = t.Points[0].Time
	}
	return t, nil
}
