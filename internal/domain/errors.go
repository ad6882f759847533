package domain

import "errors"

// Reason is the machine-readable code carried in error frames and REST bodies.
type Reason string

const (
	ReasonInvalidToken       Reason = "invalid_token"
	ReasonRoomNotFound       Reason = "room_not_found"
	ReasonUserNotFound       Reason = "user_not_found"
	ReasonMembershipNotFound Reason = "membership_not_found"
	ReasonMessageNotFound    Reason = "message_not_found"
	ReasonKeyNotFound        Reason = "key_not_found"
	ReasonNotAMember         Reason = "not_a_member"
	ReasonRoomLocked         Reason = "room_locked"
	ReasonInviteRequired     Reason = "invite_required_or_invalid"
	ReasonForbidden          Reason = "forbidden"
	ReasonMutedByAdmin       Reason = "muted_by_admin"
	ReasonVideoOffByAdmin    Reason = "video_off_by_admin"
	ReasonMuteAll            Reason = "mute_all"
	ReasonRateLimited        Reason = "rate_limited"
	ReasonEmptyMessage       Reason = "empty_message"
	ReasonForbiddenWords     Reason = "forbidden_words"
	ReasonEmptyCiphertext    Reason = "empty_ciphertext"
	ReasonBadCiphertext      Reason = "bad_ciphertext"
	ReasonBadJSON            Reason = "bad_json"
	ReasonBadPayload         Reason = "bad_payload"
	ReasonMissingTo          Reason = "missing_to"
	ReasonBadSDP             Reason = "bad_sdp"
	ReasonUnknownType        Reason = "unknown_type"
	ReasonSuperseded         Reason = "superseded"
	ReasonKicked             Reason = "kicked"
	ReasonInvalidPublicKey   Reason = "invalid_public_key"
	ReasonInvalidSlug        Reason = "invalid_slug"
	ReasonSlowConsumer       Reason = "slow_consumer"
	ReasonInternal           Reason = "internal"
)

// Error is a domain failure identified by its reason.
type Error struct {
	Reason Reason
	msg    string
}

func (e *Error) Error() string { return e.msg }

func newError(r Reason, msg string) *Error { return &Error{Reason: r, msg: msg} }

var (
	ErrInvalidToken       = newError(ReasonInvalidToken, "invalid token")
	ErrRoomNotFound       = newError(ReasonRoomNotFound, "room not found")
	ErrUserNotFound       = newError(ReasonUserNotFound, "user not found")
	ErrMembershipNotFound = newError(ReasonMembershipNotFound, "membership not found")
	ErrMessageNotFound    = newError(ReasonMessageNotFound, "message not found")
	ErrKeyNotFound        = newError(ReasonKeyNotFound, "no key share for user")
	ErrNotAMember         = newError(ReasonNotAMember, "not a member of the room")
	ErrRoomLocked         = newError(ReasonRoomLocked, "room is locked")
	ErrInviteRequired     = newError(ReasonInviteRequired, "invite key required or invalid")
	ErrForbidden          = newError(ReasonForbidden, "forbidden")
	ErrMutedByAdmin       = newError(ReasonMutedByAdmin, "muted by admin")
	ErrVideoOffByAdmin    = newError(ReasonVideoOffByAdmin, "video disabled by admin")
	ErrMuteAll            = newError(ReasonMuteAll, "room is muted")
	ErrRateLimited        = newError(ReasonRateLimited, "rate limited")
	ErrEmptyMessage       = newError(ReasonEmptyMessage, "empty message")
	ErrForbiddenWords     = newError(ReasonForbiddenWords, "message contains forbidden words")
	ErrEmptyCiphertext    = newError(ReasonEmptyCiphertext, "empty ciphertext")
	ErrBadCiphertext      = newError(ReasonBadCiphertext, "ciphertext is not valid base64")
	ErrBadJSON            = newError(ReasonBadJSON, "malformed json")
	ErrBadPayload         = newError(ReasonBadPayload, "malformed payload")
	ErrMissingTo          = newError(ReasonMissingTo, "signaling message without target")
	ErrBadSDP             = newError(ReasonBadSDP, "malformed session description")
	ErrUnknownType        = newError(ReasonUnknownType, "unknown message type")
	ErrSuperseded         = newError(ReasonSuperseded, "connection superseded")
	ErrKicked             = newError(ReasonKicked, "kicked from room")
	ErrInvalidPublicKey   = newError(ReasonInvalidPublicKey, "unsupported public key")
	ErrInvalidSlug        = newError(ReasonInvalidSlug, "invalid room slug")
	ErrSlowConsumer       = newError(ReasonSlowConsumer, "send buffer overflow")
)

// ReasonOf maps any error to a reason; unknown errors are internal.
func ReasonOf(err error) Reason {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ReasonInternal
}
