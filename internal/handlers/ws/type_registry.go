package ws

import (
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all inbound event types
	RegisterType(&EventUserJoin{})
	RegisterType(&EventSendMessage{})
	RegisterType(&EventCreateGroup{})
	RegisterType(&EventJoinGroup{})
	RegisterType(&EventLeaveGroup{})
	RegisterType(&EventTypingStart{})
	RegisterType(&EventTypingStop{})
	RegisterType(&EventMarkMessageRead{})
	RegisterType(&EventEditMessage{})
	RegisterType(&EventDeleteMessage{})
	RegisterType(&EventTogglePinMessage{})
	RegisterType(&EventUpdateStatus{})
	RegisterType(&EventBlockUser{})
	RegisterType(&EventUnblockUser{})
	RegisterType(&EventSearchMessages{})
	RegisterType(&EventArchiveChat{})
	RegisterType(&EventUnarchiveChat{})
}

func RegisterType(ev Event) {
	typeRegistry[ev.EventType()] = reflect.TypeOf(ev).Elem()
}

// GetTypeRegistry returns the type registry for testing
func GetTypeRegistry() map[string]reflect.Type {
	return typeRegistry
}
