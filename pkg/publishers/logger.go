package publishers

// Logger is the object logging surface publishers write to.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// deliveryFields describes one event delivery attempt for a sink.
func deliveryFields(publisherID string, evt Event, err error) map[string]any {
	fields := map[string]any{
		"publisher_id": publisherID,
		"event_id":     evt.ID.String(),
		"feed_id":      evt.FeedID,
		"station_uuid": evt.Station.StationUUID.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	return fields
}
