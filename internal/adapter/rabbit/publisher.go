package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/pkg/rabbit"
)

const exchangeName = "ride.events"

// RidePublisher emits committed ride transitions to a topic exchange.
// Routing key is ride.status.<new_status>.
type RidePublisher struct {
	client *rabbit.RabbitMQ
}

func NewRidePublisher(client *rabbit.RabbitMQ) (*RidePublisher, error) {
	err := client.Channel.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("ride publisher: exchange declare: %w", err)
	}

	return &RidePublisher{client: client}, nil
}

func (p *RidePublisher) PublishRideStatus(ctx context.Context, msg models.RideStatusUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("ride publisher: marshal: %w", err)
	}

	routingKey := "ride.status." + msg.NewStatus.String()

	err = p.client.Channel.PublishWithContext(ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("ride publisher: publish %s: %w", routingKey, err)
	}

	return nil
}
