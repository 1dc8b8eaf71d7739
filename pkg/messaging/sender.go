package messaging

import (
	"fmt"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := getName(prefix, topic)
	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(
		name,  // name of the queue
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // noWait
		nil,   // arguments
	); err != nil {
		return err
	}
	return ch.QueueBind(name, name, name, false, nil)
}

func getName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

func SendChange[V any](c *amqp.Connection, prefix string, topic ChangeTopic, data V) error {
	bytes, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	name := getName(prefix, topic)
	return ch.Publish(
		name,
		name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        bytes,
		},
	)
}

// AmqpPublisher publishes on the exchanges declared by DefineTopic.
type AmqpPublisher struct {
	Conn   *amqp.Connection
	Prefix string
}

func Dial(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
}

// Connect dials url and declares the given topics.
func Connect(url, prefix string, topics ...ChangeTopic) (*AmqpPublisher, error) {
	conn, err := Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	for _, topic := range topics {
		if err = DefineTopic(ch, prefix, topic); err != nil {
			conn.Close()
			return nil, fmt.Errorf("define topic %s: %w", topic, err)
		}
	}
	return &AmqpPublisher{Conn: conn, Prefix: prefix}, nil
}

func (p *AmqpPublisher) Publish(topic ChangeTopic, data any) error {
	return SendChange(p.Conn, p.Prefix, topic, data)
}

func (p *AmqpPublisher) Close() error {
	return p.Conn.Close()
}
