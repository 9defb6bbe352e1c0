package network

import "strings"

// Kind is the immutable wired/wireless tag of an Interface.
type Kind string

const (
	KindWired    Kind = "wired"
	KindWireless Kind = "wireless"
)

// ParseKind accepts "wired" or "wireless" (and "ethernet"/"wifi" spellings).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wired", "ethernet":
		return KindWired, nil
	case "wireless", "wifi", "wlan":
		return KindWireless, nil
	default:
		return "", &InvalidValueError{Attribute: "kind", Value: s, Reason: "expected wired or wireless"}
	}
}

// AdminState is the administrative state of a link.
type AdminState string

const (
	StateUp      AdminState = "up"
	StateDown    AdminState = "down"
	StateUnknown AdminState = "unknown"
)

func (s AdminState) String() string { return string(s) }

// ParseAdminState derives the administrative state from the `state` token
// and the device flags. An operstate of UP implies the link is up. Otherwise
// the UP flag decides when a flag list is available, since a link that is
// administratively up without carrier reports `state DOWN`.
func ParseAdminState(token string, flags DeviceFlags) AdminState {
	token = strings.ToUpper(token)
	switch {
	case token == "UP":
		return StateUp
	case flags != nil && flags.Has("UP"):
		return StateUp
	case flags != nil || token == "DOWN":
		return StateDown
	default:
		return StateUnknown
	}
}

// ParseRequestedState validates a state for SetState.
func ParseRequestedState(s string) (AdminState, error) {
	switch AdminState(strings.ToLower(strings.TrimSpace(s))) {
	case StateUp:
		return StateUp, nil
	case StateDown:
		return StateDown, nil
	default:
		return "", &InvalidValueError{Attribute: "state", Value: s, Reason: "expected up or down"}
	}
}
