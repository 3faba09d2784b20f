package domain

// HasCapacity reports whether one more active participant fits under limit.
// A nil limit means the event is unlimited.
func HasCapacity(limit *int, activeCount int) bool {
	return limit == nil || activeCount < *limit
}

// DeriveEventStatus returns the status an event should have once its active
// participant count is activeCount. Cancelled and completed are never changed.
func DeriveEventStatus(current EventStatus, limit *int, activeCount int) EventStatus {
	if current.Terminal() {
		return current
	}
	if limit != nil && activeCount >= *limit {
		return EventStatusFull
	}
	if current == EventStatusFull {
		return EventStatusOpen
	}
	return current
}
