package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"

	ActionDatabaseTransactionFailed = "database_transaction_failed"

	ActionWsConnectionOpened = "ws_connection_opened"
	ActionWsConnectionClosed = "ws_connection_closed"
	ActionWsAuthFailed       = "ws_auth_failed"
)
