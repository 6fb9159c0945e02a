package service

import "fmt"

// EnterMessage is the system text published when a member joins a room
func EnterMessage(nickname string) string {
	return fmt.Sprintf("%s has entered the room.", nickname)
}

// LeaveMessage is the system text published when a member leaves a room
func LeaveMessage(nickname string) string {
	return fmt.Sprintf("%s has left the room.", nickname)
}
