package inventory

import "github.com/ThirdShiftStudios/FusionMMO-sub000/internal/protocol"

// ItemStatus is the outcome of an inventory operation. Failures are values,
// never panics.
type ItemStatus uint8

const (
	StatusOK ItemStatus = iota
	// StatusPending means a proxy forwarded the request to the authority.
	StatusPending
	// StatusPartial means some but not all units were placed.
	StatusPartial
	StatusNotAuthority
	StatusInvalidIndex
	StatusEmptySlot
	StatusInvalidQuantity
	StatusCategoryMismatch
	StatusNoSpace
	StatusProtected
	StatusSpawnFailed
	StatusUnknownItem
	StatusInvalidState
	StatusToolUnavailable
)

var statusNames = [...]string{
	StatusOK:               "OK",
	StatusPending:          "PENDING",
	StatusPartial:          "PARTIAL",
	StatusNotAuthority:     "NOT_AUTHORITY",
	StatusInvalidIndex:     "INVALID_INDEX",
	StatusEmptySlot:        "EMPTY_SLOT",
	StatusInvalidQuantity:  "INVALID_QUANTITY",
	StatusCategoryMismatch: "CATEGORY_MISMATCH",
	StatusNoSpace:          "NO_SPACE",
	StatusProtected:        "PROTECTED",
	StatusSpawnFailed:      "SPAWN_FAILED",
	StatusUnknownItem:      "UNKNOWN_ITEM",
	StatusInvalidState:     "INVALID_STATE",
	StatusToolUnavailable:  "TOOL_UNAVAILABLE",
}

func (s ItemStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Accepted reports whether the operation changed (or will change) state.
func (s ItemStatus) Accepted() bool {
	return s == StatusOK || s == StatusPending || s == StatusPartial
}

// Code maps the status to a protocol error code for ACK messages.
func (s ItemStatus) Code() string {
	switch s {
	case StatusOK, StatusPending:
		return ""
	case StatusNotAuthority:
		return protocol.ErrNoPermission
	case StatusInvalidIndex, StatusCategoryMismatch, StatusUnknownItem:
		return protocol.ErrInvalidTarget
	case StatusEmptySlot, StatusToolUnavailable:
		return protocol.ErrNoResource
	case StatusInvalidQuantity:
		return protocol.ErrBadRequest
	case StatusNoSpace, StatusPartial:
		return protocol.ErrNoSpace
	case StatusProtected, StatusInvalidState:
		return protocol.ErrConflict
	default:
		return protocol.ErrInternal
	}
}
