package shared

const (
	ProjectID = "wandermap-navigator" // Can be overridden by GOOGLE_CLOUD_PROJECT

	TopicNavigationEvents = "topic-navigation-events"

	CollectionUsers              = "users"
	CollectionNavigationSessions = "navigation_sessions"

	// Realtime Database root for live locations: users/{uid}
	RealtimeLocationsPath = "users"

	TripTracePrefix = "trips"
)
