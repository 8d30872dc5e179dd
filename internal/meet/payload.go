package meet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedPayload is returned when a settings payload does not have the
// positional shape the client relies on.
var ErrUnexpectedPayload = errors.New("unexpected settings payload")

// Payload is a positional settings message in Google's JSON+protobuf
// encoding: a JSON array whose indices stand for proto field numbers.
type Payload []any

// Positions inside a read payload.
const (
	readSpaceIndex   = 1
	readSpaceIDIndex = 0
)

// Field mask entries sent with every update.
const (
	FieldModerationEnabled            = "settings.moderation_enabled"
	FieldCohostArtifactSharingEnabled = "settings.cohost_artifact_sharing_enabled"
	FieldCohostConfig                 = "cohost_config"
)

// BreakoutRoom is one pre-configured breakout room.
type BreakoutRoom struct {
	LocalID string
	Name    string
}

// DefaultBreakoutRooms are created on every provisioned meeting.
var DefaultBreakoutRooms = []BreakoutRoom{
	{LocalID: "localId_5834079313", Name: "소그룹 세션 1"},
	{LocalID: "localId_9296729851", Name: "소그룹 세션 2"},
}

// DecodePayload reads a JSON+protobuf payload. Numbers are kept as
// json.Number so ids round-trip unchanged.
func DecodePayload(r io.Reader) (Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}
	return p, nil
}

// SpaceID returns the meeting space id stored at [1][0].
func (p Payload) SpaceID() (string, error) {
	if len(p) <= readSpaceIndex {
		return "", fmt.Errorf("%w: payload has %d elements", ErrUnexpectedPayload, len(p))
	}
	space, ok := p[readSpaceIndex].([]any)
	if !ok || len(space) <= readSpaceIDIndex {
		return "", fmt.Errorf("%w: space block missing", ErrUnexpectedPayload)
	}

	switch id := space[readSpaceIDIndex].(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("%w: empty space id", ErrUnexpectedPayload)
		}
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("%w: space id has type %T", ErrUnexpectedPayload, id)
	}
}

// BuildSettingsUpdate returns the write body that enables moderation and
// co-host artifact sharing, installs DefaultBreakoutRooms and sets the
// targeting list. targets may be empty.
func BuildSettingsUpdate(conferenceID, calendarID, spaceID string, targets []string) Payload {
	targetList := make([]any, 0, len(targets))
	for _, t := range targets {
		targetList = append(targetList, t)
	}

	return Payload{
		conferenceID,
		calendarID,
		spaceBlock(spaceID, conferenceID),
		[]any{[]any{
			FieldModerationEnabled,
			FieldCohostArtifactSharingEnabled,
			FieldCohostConfig,
		}},
		true,
		breakoutRooms(),
		[]any{
			spaceBlock(spaceID, conferenceID),
			breakoutRooms(),
			[]any{targetList, []any{}},
			nil,
			[]any{},
		},
	}
}

// spaceBlock is the meeting space message with moderation (field 5) and
// co-host artifact sharing (field 8) of its settings sub-message set.
func spaceBlock(spaceID, conferenceID string) []any {
	return []any{
		spaceID,
		conferenceID,
		nil,
		nil,
		[]any{},
		nil,
		nil,
		nil,
		nil,
		nil,
		[]any{},
		nil,
		[]any{},
		nil,
		[]any{nil, nil, nil, nil, true, nil, nil, true},
	}
}

func breakoutRooms() []any {
	rooms := make([]any, 0, len(DefaultBreakoutRooms))
	for _, r := range DefaultBreakoutRooms {
		rooms = append(rooms, []any{r.LocalID, r.Name, nil, []any{}})
	}
	return []any{rooms}
}
