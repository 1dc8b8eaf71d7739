package messaging

import (
	"log"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	err = ch.QueueBind(q.Name, name, name, false, nil)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// Consume acks every delivery handle accepts. Deliveries handle rejects are
// logged and dropped.
func Consume(msgs <-chan amqp.Delivery, handle func(amqp.Delivery) error) {
	for d := range msgs {
		if err := handle(d); err != nil {
			log.Printf("Error processing message: %v", err)
			d.Nack(false, false)
			continue
		}
		d.Ack(false)
	}
}

func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, handle func(amqp.Delivery) error) error {
	fc, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}
	go func() {
		defer ch.Close()
		Consume(fc, handle)
	}()
	return nil
}

// Decode unmarshals the json body of a delivery.
func Decode[V any](d amqp.Delivery) (V, error) {
	var ret V
	err := sonic.Unmarshal(d.Body, &ret)
	return ret, err
}

// ListenToChanges calls fn for every IndexChange published under prefix.
func ListenToChanges(conn *amqp.Connection, prefix string, fn func(IndexChange) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	return ListenToTopic(ch, prefix, IndexChanged, func(d amqp.Delivery) error {
		change, err := Decode[IndexChange](d)
		if err != nil {
			return err
		}
		return fn(change)
	})
}
