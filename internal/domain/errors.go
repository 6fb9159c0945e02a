package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("chat room not found")
	ErrMembershipNotFound = errors.New("member has not joined this chat room")
	ErrMemberNotFound     = errors.New("member not found")
	ErrInvalidInput       = errors.New("invalid input")
)
