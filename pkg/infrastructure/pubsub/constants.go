package pubsub

// CloudEvent types emitted over a navigation's lifecycle.
const (
	EventRouteCreated       = "com.wandermap.navigation.route.created"
	EventNavigationStarted  = "com.wandermap.navigation.started"
	EventNavigationStopped  = "com.wandermap.navigation.stopped"
	SourceNavigator         = "/wandermap/navigator"
	AttributeEventType      = "ce-type"
	AttributeEventSource    = "ce-source"
	AttributeEventSubject   = "ce-subject"
	ContentTypeCloudEventV1 = "application/cloudevents+json"
)
