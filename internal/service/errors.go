package service

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindCapacity     Kind = "capacity"
	KindDuplicate    Kind = "duplicate"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so sentinels still match after the message was specialised.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrTournamentNotFound   = newError(KindNotFound, "TOURNAMENT_NOT_FOUND", "tournament not found")
	ErrMatchNotFound        = newError(KindNotFound, "MATCH_NOT_FOUND", "match not found")
	ErrLinkNotFound         = newError(KindNotFound, "LINK_NOT_FOUND", "player link not found")
	ErrPoolPlayerNotFound   = newError(KindNotFound, "POOL_PLAYER_NOT_FOUND", "player is not in the pool")
	ErrNotOpenYet           = newError(KindInvalidState, "REGISTRATION_NOT_OPEN", "registration is not open yet")
	ErrAlreadyStarted       = newError(KindInvalidState, "TOURNAMENT_ALREADY_STARTED", "tournament is not accepting registrations")
	ErrNotEnoughPlayers     = newError(KindInvalidState, "NOT_ENOUGH_PLAYERS", "at least two players are needed to start")
	ErrMatchAlreadyFinished = newError(KindInvalidState, "MATCH_ALREADY_FINISHED", "match already finished")
	ErrPlayerInMatch        = newError(KindInvalidState, "POOL_PLAYER_IN_MATCH", "player is in a match")
	ErrTournamentFull       = newError(KindCapacity, "TOURNAMENT_FULL", "tournament is full")
	ErrAlreadyRegistered    = newError(KindDuplicate, "ALREADY_REGISTERED", "player already registered")
	ErrRewardAlreadyClaimed = newError(KindDuplicate, "REWARD_ALREADY_CLAIMED", "rewards already claimed")
	ErrNotLinked            = newError(KindUnauthorized, "PLAYER_NOT_LINKED", "player has not linked a game account")
	ErrNotAParticipant      = newError(KindUnauthorized, "NOT_A_PARTICIPANT", "player is not part of this match")
	ErrValidation           = newError(KindValidation, "VALIDATION_FAILED", "validation failed")
)

func errNotOpenYet(minutes int, label string) error {
	return &Error{
		Kind:    ErrNotOpenYet.Kind,
		Code:    ErrNotOpenYet.Code,
		Message: fmt.Sprintf("registration opens in %d minute(s) (%s)", minutes, label),
	}
}

func validationError(format string, args ...any) error {
	return &Error{
		Kind:    ErrValidation.Kind,
		Code:    ErrValidation.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf reports the Kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
