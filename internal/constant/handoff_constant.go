package constant

// Session handlers. The switch ai -> agent happens exactly once, at the
// pending -> active transition, and is never reversed within a session.
const (
	SessionHandlerAI    = "ai"
	SessionHandlerAgent = "agent"
	SessionHandlerEnded = "ended"
)

// Handoff lifecycle. resolved and after_hours are terminal.
const (
	HandoffStatusPending    = "pending"
	HandoffStatusActive     = "active"
	HandoffStatusResolved   = "resolved"
	HandoffStatusAfterHours = "after_hours"
)

// Who closed an active handoff.
const (
	HandoffResolvedByAgent = "agent"
	HandoffResolvedByUser  = "user"
)

// Agent presence. Manual busy/offline is sticky; only offline -> available
// is flipped automatically by a heartbeat or login.
const (
	AgentStatusAvailable = "available"
	AgentStatusBusy      = "busy"
	AgentStatusOffline   = "offline"
)

// Message roles within a chat session.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleAgent     = "agent"
	MessageRoleSystem    = "system"
)

// Delivery channels a tenant binding can route to.
const (
	ChannelWidget = "widget"
)

const AssistantUnavailableReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."
