package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/geolocation"
	httputil "github.com/wandermap/navigator/pkg/infrastructure/http"
)

type permissionRequest struct {
	Location string `json:"location" validate:"required,oneof=granted denied prompt"`
}

type positionRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	// Timestamp is in milliseconds since the epoch; zero means now.
	Timestamp int64   `json:"timestamp" validate:"gte=0"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0"`
}

type destinationRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
}

type deviceRequest struct {
	Token string `json:"token" validate:"required"`
}

type displayResponse struct {
	Distance string `json:"distance"`
	Duration string `json:"duration"`
}

type stateResponse struct {
	UserID       string          `json:"user_id"`
	UserLocation *orb.Point      `json:"user_location"`
	Destination  *orb.Point      `json:"destination"`
	Route        orb.LineString  `json:"route"`
	Display      displayResponse `json:"display"`
	Bearing      float64         `json:"bearing"`
	Locating     bool            `json:"locating"`
	Navigating   bool            `json:"navigating"`
	WatchActive  bool            `json:"watch_active"`
	SessionID    string          `json:"session_id,omitempty"`
}

func (s *Server) stateOf(sess *Session) stateResponse {
	st := sess.Navigator.State()
	resp := stateResponse{
		UserID:       st.UserID,
		UserLocation: st.UserLocation,
		Destination:  st.Destination,
		Route:        st.Route,
		Display:      displayResponse{Distance: st.Display.Distance, Duration: st.Display.Duration},
		Bearing:      st.Bearing,
		Locating:     st.Locating,
		Navigating:   st.Navigating,
		WatchActive:  st.WatchActive,
	}
	if resp.Route == nil {
		resp.Route = orb.LineString{}
	}
	if s.sessions != nil {
		resp.SessionID, _ = s.sessions.ActiveSession(st.UserID)
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": len(s.registry.UserIDs()),
	})
}

func (s *Server) handlePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !s.decode(w, r, &req) {
		return
	}
	state, err := geolocation.ParsePermissionState(req.Location)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Locator.SetPermission(state)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"location": string(state)})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	ts := time.Now()
	if req.Timestamp > 0 {
		ts = time.UnixMilli(req.Timestamp)
	}
	sess.Locator.Push(geolocation.Sample{
		Position:  orb.Point{*req.Longitude, *req.Latitude},
		Timestamp: ts,
		Accuracy:  req.Accuracy,
	})
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Navigator.LocateUser(r.Context()); err != nil {
		s.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.stateOf(sess))
}

func (s *Server) handleDestination(w http.ResponseWriter, r *http.Request) {
	var req destinationRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Navigator.SelectDestination(r.Context(), orb.Point{*req.Longitude, *req.Latitude}); err != nil {
		s.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.stateOf(sess))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Navigator.StartNavigation(r.Context()); err != nil {
		s.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.stateOf(sess))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Navigator.StopNavigation(r.Context()); err != nil {
		s.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.stateOf(sess))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.stateOf(sess))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.validate.Var(sessionID, "required,uuid"); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "session id must be a UUID")
		return
	}
	rec, err := s.db.GetNavigationSession(r.Context(), chi.URLParam(r, "userID"), sessionID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !s.decode(w, r, &req) {
		return
	}
	if s.db == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "device registry not configured")
		return
	}
	if err := s.db.AddDeviceToken(r.Context(), chi.URLParam(r, "userID"), req.Token); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Hub.ServeHTTP(w, r)
}
