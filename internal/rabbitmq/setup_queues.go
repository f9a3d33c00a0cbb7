package rabbitmq

// ExchangeName — durable direct exchange для событий по записям.
const ExchangeName = "appointments"

const (
	// CancellationQueue — очередь писем об отмене записи.
	CancellationQueue = "appointments.cancellation"
	// CancellationKey — routing key сообщений об отмене.
	CancellationKey = "cancellation"
)

// QueueConfig описывает очередь и её routing key.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAppointmentQueues возвращает очереди, которые объявляет каждый процесс.
func GetAppointmentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: CancellationQueue, RoutingKey: CancellationKey},
	}
}
