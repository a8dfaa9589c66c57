package ws

import (
	"fmt"
	"reflect"
)

// inbound maps a frame's "type" to the message it decodes into.
var inbound = map[string]reflect.Type{}

func init() {
	register(&MessagePing{})
	register(&MessagePong{})
	register(&MessageMarkRead{})
}

func register(msg Message) {
	inbound[msg.GetType()] = reflect.TypeOf(msg).Elem()
}

func newMessage(msgType string) (Message, error) {
	t, ok := inbound[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}
	return reflect.New(t).Interface().(Message), nil
}
