// Structure of the live Metrics model pushed to the command centre.

package entity

type EngagementVelocity struct {
	MsgsPerMin      float64 `json:"msgsPerMin"`
	ReactionsPerMin float64 `json:"reactionsPerMin"`
}

type ServerLoad struct {
	CPU float64 `json:"cpu"`
	GPU float64 `json:"gpu"`
	RAM float64 `json:"ram"`
}

type Metrics struct {
	Bitrate            float64            `json:"bitrate"`
	FPS                float64            `json:"fps"`
	DroppedFrames      int                `json:"droppedFrames"`
	LatencyMs          float64            `json:"latencyMs"`
	LiveViewers        int                `json:"liveViewers"`
	EngagementVelocity EngagementVelocity `json:"engagementVelocity"`
	// Always within [0,1]
	SentimentTide float64 `json:"sentimentTide"`
	// Mirror of BroadcastState.Guests, refreshed on every roster change
	Guests       []Guest    `json:"guests"`
	ServerLoad   ServerLoad `json:"serverLoad"`
	APILatencyMs float64    `json:"apiLatencyMs"`
	APIErrors    int        `json:"apiErrors"`
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (m Metrics) Clone() Metrics {
	m.Guests = cloneGuests(m.Guests)
	return m
}
