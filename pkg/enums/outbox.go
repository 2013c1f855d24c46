package enums

// OutboxEventType names the domain events written to the outbox.
type OutboxEventType string

const (
	EventOrderTransitioned   OutboxEventType = "order.transitioned"
	EventOrderExpired        OutboxEventType = "order.expired"
	EventVerificationDecided OutboxEventType = "verification.decided"
	EventRefundInstruction   OutboxEventType = "settlement.refund_instruction"
	EventWithdrawalDecided   OutboxEventType = "withdrawal.decided"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder            OutboxAggregateType = "order"
	AggregateOrderItem        OutboxAggregateType = "order_item"
	AggregateVerifiableEntity OutboxAggregateType = "verifiable_entity"
	AggregateWithdrawal       OutboxAggregateType = "withdrawal"
)
