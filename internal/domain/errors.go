package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrRoomNotFound    = fmt.Errorf("room %w", ErrNotFound)
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrNotCalled       = errors.New("number not called")
	ErrInvalidClaim    = errors.New("invalid claim")
	ErrAlreadyFinished = errors.New("round already finished")
	ErrPoolExhausted   = errors.New("pool exhausted")
	ErrRateLimited     = errors.New("rate limited")
)

// Collaborator failures.
var (
	ErrVersionConflict         = errors.New("version conflict")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrCodeTaken is returned by a store when a room code is already in use.
	ErrCodeTaken = errors.New("room code taken")
)

// Kind is the wire name of an error class.
type Kind string

const (
	KindValidation              Kind = "ValidationError"
	KindNotFound                Kind = "NotFound"
	KindRoomNotFound            Kind = "RoomNotFound"
	KindForbidden               Kind = "Forbidden"
	KindInvalidState            Kind = "InvalidState"
	KindDuplicateName           Kind = "DuplicateName"
	KindNotCalled               Kind = "NotCalled"
	KindInvalidClaim            Kind = "InvalidClaim"
	KindAlreadyFinished         Kind = "AlreadyFinished"
	KindPoolExhausted           Kind = "PoolExhausted"
	KindRateLimited             Kind = "RateLimited"
	KindVersionConflict         Kind = "VersionConflict"
	KindCollaboratorUnavailable Kind = "CollaboratorUnavailable"
	KindTimeout                 Kind = "Timeout"
	KindCanceled                Kind = "Canceled"
)

// order matters: ErrRoomNotFound must be tested before ErrNotFound.
var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrRoomNotFound, KindRoomNotFound},
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrInvalidState, KindInvalidState},
	{ErrDuplicateName, KindDuplicateName},
	{ErrNotCalled, KindNotCalled},
	{ErrInvalidClaim, KindInvalidClaim},
	{ErrAlreadyFinished, KindAlreadyFinished},
	{ErrPoolExhausted, KindPoolExhausted},
	{ErrRateLimited, KindRateLimited},
	{ErrVersionConflict, KindVersionConflict},
	{ErrCodeTaken, KindCollaboratorUnavailable},
	{ErrCollaboratorUnavailable, KindCollaboratorUnavailable},
	{context.DeadlineExceeded, KindTimeout},
	{context.Canceled, KindCanceled},
}

// KindOf classifies err. Anything unrecognised is reported as a collaborator failure.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindCollaboratorUnavailable
}

var messages = map[Kind]string{
	KindValidation:              "Please check your input and try again.",
	KindNotFound:                "Not found.",
	KindRoomNotFound:            "Room not found.",
	KindForbidden:               "Only the host can do that.",
	KindInvalidState:            "That action is not available right now.",
	KindDuplicateName:           "Player name already taken in this room.",
	KindNotCalled:               "Number has not been called yet!",
	KindInvalidClaim:            "No valid winning pattern on your card.",
	KindAlreadyFinished:         "Game already has a winner.",
	KindPoolExhausted:           "All numbers have been called.",
	KindRateLimited:             "Too many requests, slow down.",
	KindVersionConflict:         "The room changed, please retry.",
	KindCollaboratorUnavailable: "Something went wrong, please retry.",
	KindTimeout:                 "The server took too long to respond.",
	KindCanceled:                "Request canceled.",
}

// Message returns a short human-readable text for kind.
func Message(kind Kind) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return messages[KindCollaboratorUnavailable]
}

// ErrorForKind maps a wire kind back to its sentinel.
func ErrorForKind(kind Kind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindRoomNotFound:
		return ErrRoomNotFound
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	case KindInvalidState:
		return ErrInvalidState
	case KindDuplicateName:
		return ErrDuplicateName
	case KindNotCalled:
		return ErrNotCalled
	case KindInvalidClaim:
		return ErrInvalidClaim
	case KindAlreadyFinished:
		return ErrAlreadyFinished
	case KindPoolExhausted:
		return ErrPoolExhausted
	case KindRateLimited:
		return ErrRateLimited
	case KindVersionConflict:
		return ErrVersionConflict
	case KindTimeout:
		return context.DeadlineExceeded
	case KindCanceled:
		return context.Canceled
	default:
		return ErrCollaboratorUnavailable
	}
}
