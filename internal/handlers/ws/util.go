package ws

import (
	"encoding/json"
)

func Serialize(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SerializedMessage{Type: msg.GetType(), Payload: payload})
}

func Deserialize(jsonBytes []byte) (Message, error) {
	var wrapper SerializedMessage
	if err := json.Unmarshal(jsonBytes, &wrapper); err != nil {
		return nil, err
	}
	return DeserializeSerializedMessage(&wrapper)
}

// DeserializeSerializedMessage builds the registered message for wrapper.Type.
// A missing payload leaves the message zero-valued.
func DeserializeSerializedMessage(wrapper *SerializedMessage) (Message, error) {
	msg, err := newMessage(wrapper.Type)
	if err != nil {
		return nil, err
	}
	if len(wrapper.Payload) == 0 || string(wrapper.Payload) == "null" {
		return msg, nil
	}
	if err := json.Unmarshal(wrapper.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
