package ws

// MessagePing is a keepalive ping from client
type MessagePing struct{}

func (msg *MessagePing) GetType() string {
	return "ping"
}

func (msg *MessagePing) Process(ctx *MessageContext) error {
	ctx.Hub.Touch(ctx.Client)
	if ctx.Presence != nil {
		ctx.Presence.Heartbeat(ctx.Ctx, ctx.UserID)
	}
	return ctx.Client.WriteJSON(Envelope{Type: "pong"})
}

// MessagePong is a pong response (in case client wants to track latency)
type MessagePong struct{}

func (msg *MessagePong) GetType() string {
	return "pong"
}

func (msg *MessagePong) Process(ctx *MessageContext) error {
	ctx.Hub.Touch(ctx.Client)
	return nil
}
