package domain

type RoomID string

// CallKind says what kind of call a room is running.
type CallKind string

const (
	CallVideo  CallKind = "video"
	CallAudio  CallKind = "audio"
	CallScreen CallKind = "screen"
)

func (k CallKind) Valid() bool {
	switch k {
	case CallVideo, CallAudio, CallScreen:
		return true
	}
	return false
}
