package model

// LivestreamType is the per-video broadcast state.
//
//	none -> upcoming -> live -> completed
//
// A video that has ever been live never goes back to none.
type LivestreamType string

const (
	LivestreamNone      LivestreamType = "none"
	LivestreamUpcoming  LivestreamType = "upcoming"
	LivestreamLive      LivestreamType = "live"
	LivestreamCompleted LivestreamType = "completed"
)

// Valid reports whether t is one of the four known states.
func (t LivestreamType) Valid() bool {
	switch t {
	case LivestreamNone, LivestreamUpcoming, LivestreamLive, LivestreamCompleted:
		return true
	}
	return false
}

// ResolveLivestreamType merges a freshly observed state with the stored one.
// A video that was live or completed and is now reported as none is kept as
// completed. Every other observation is taken as is, including
// completed -> upcoming for a re-scheduled stream on the same id.
func ResolveLivestreamType(previous, observed LivestreamType) LivestreamType {
	if !observed.Valid() {
		observed = LivestreamNone
	}
	if observed == LivestreamNone && (previous == LivestreamLive || previous == LivestreamCompleted) {
		return LivestreamCompleted
	}
	return observed
}

// NextLiveVideoID computes a channel's live pointer after videoID moves to
// newType. The pointer is set when the video is live and cleared only when it
// currently references this same video.
func NextLiveVideoID(current *string, videoID string, newType LivestreamType) *string {
	if newType == LivestreamLive {
		id := videoID
		return &id
	}
	if current != nil && *current == videoID {
		return nil
	}
	return current
}

// SameLiveVideoID compares two nullable pointers by value.
func SameLiveVideoID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
