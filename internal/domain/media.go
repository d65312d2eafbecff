package domain

// MediaState is what a participant currently shares in a call.
// Mutated in place by the room tracker, snapshotted into events.
type MediaState struct {
	Video  bool `json:"video"`
	Audio  bool `json:"audio"`
	Screen bool `json:"screen"`
}
