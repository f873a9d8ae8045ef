package messaging

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"icupa-ordering/internal/config"
	"icupa-ordering/internal/logger"
)

// Exchange and queue names for the ordering topology.
const (
	OrdersExchange      = "orders_topic"
	StatusFanout        = "order_status_fanout"
	KitchenQueue        = "kitchen_queue"
	StatusUpdatesQueue  = "order_status_queue"
	OrdersRoutingPrefix = "orders"
)

// Connection wraps a RabbitMQ connection with reconnection logic
type Connection struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	config  *config.Config
	logger  *logger.Logger
	url     string
}

// New creates a new RabbitMQ connection
func New(cfg *config.Config, log *logger.Logger) (*Connection, error) {
	conn := &Connection{
		config: cfg,
		logger: log,
		url:    cfg.RabbitMQURL(),
	}

	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}

	return conn, nil
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Connection) connect() error {
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if setupErr := c.setupTopology(); setupErr != nil {
					c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", setupErr, nil)
					c.close()
					err = setupErr
				} else {
					return nil
				}
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			waitTime := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", waitTime),
				"startup", err, nil)
			time.Sleep(waitTime)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// setupTopology creates exchanges and queues.
//
// Submitted orders flow through the orders_topic exchange with routing
// keys "orders.{vendor_id}" so a kitchen worker can bind either to every
// vendor or to a single one. Status updates fan out to every subscriber.
func (c *Connection) setupTopology() error {
	err := c.channel.ExchangeDeclare(
		OrdersExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}

	err = c.channel.ExchangeDeclare(
		StatusFanout, // name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", StatusFanout, err)
	}

	_, err = c.channel.QueueDeclare(
		KitchenQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		amqp091.Table{
			"x-message-ttl": 300000, // 5 minutes TTL
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", KitchenQueue, err)
	}

	err = c.channel.QueueBind(
		KitchenQueue,              // queue name
		OrdersRoutingPrefix+".*",  // routing key
		OrdersExchange,            // exchange
		false,                     // no-wait
		nil,                       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", KitchenQueue, err)
	}

	_, err = c.channel.QueueDeclare(
		StatusUpdatesQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", StatusUpdatesQueue, err)
	}

	err = c.channel.QueueBind(
		StatusUpdatesQueue, // queue name
		"",                 // routing key (ignored for fanout)
		StatusFanout,       // exchange
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", StatusUpdatesQueue, err)
	}

	return nil
}

// VendorQueue declares and binds a queue dedicated to a single vendor's
// orders, used by kitchen workers tied to one bar.
func (c *Connection) VendorQueue(vendorID string) (string, error) {
	name := fmt.Sprintf("kitchen_%s_queue", vendorID)

	_, err := c.channel.QueueDeclare(name, true, false, false, false, amqp091.Table{
		"x-message-ttl": 300000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	routingKey := fmt.Sprintf("%s.%s", OrdersRoutingPrefix, vendorID)
	if err := c.channel.QueueBind(name, routingKey, OrdersExchange, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind queue %s: %w", name, err)
	}

	return name, nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	return c.close()
}

func (c *Connection) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect attempts to reconnect to RabbitMQ
func (c *Connection) Reconnect() error {
	c.close()
	return c.connect()
}
