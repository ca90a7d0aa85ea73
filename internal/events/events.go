package events

import "context"

// Event types
const (
	EventContractSigned        = "contract_signed"
	EventContractActivated     = "contract_activated"
	EventContractSubmitted     = "contract_submitted"
	EventContractCompleted     = "contract_completed"
	EventContractRejected      = "contract_rejected"
	EventContractCancelled     = "contract_cancelled"
	EventContractStatusChanged = "contract_status_changed"
	EventMilestonePaid         = "milestone_paid"
	EventMilestoneRejected     = "milestone_rejected"
	EventDisputeOpened         = "dispute_opened"
	EventUserNotification      = "user_notification"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
