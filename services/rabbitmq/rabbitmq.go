package rabbitmq

import (
	"errors"
	"fmt"
	"macrotrack-go-worker/utils"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Message is a job to publish onto a queue.
type Message struct {
	Queue         string
	ContentType   string
	CorrelationID string
	Priority      uint8
	Body          []byte
}

// Connection is one named AMQP connection and the queues it consumes.
type Connection struct {
	sync.Mutex
	name    string
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Queues  []string
	Err     chan error
	ApiErr  chan error
}

var (
	poolMutex      sync.Mutex
	connectionPool = make(map[string]*Connection)
)

// NewConnection returns the pooled connection for name, creating it if needed.
func NewConnection(name string, queues []string) *Connection {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	if c, ok := connectionPool[name]; ok {
		return c
	}
	c := &Connection{
		name:   name,
		Queues: queues,
		Err:    make(chan error, 1),
		ApiErr: make(chan error, 1),
	}
	connectionPool[name] = c
	return c
}

// GetConnection returns the pooled connection for name, nil when absent.
func GetConnection(name string) *Connection {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	return connectionPool[name]
}

func (c *Connection) Connect() error {
	c.Lock()
	defer c.Unlock()
	var err error
	c.Conn, err = amqp.Dial(utils.EnvConfig.RabbitMQ.Domain)
	if err != nil {
		c.Conn = nil
		return fmt.Errorf("error in creating rabbitmq connection for %s: %s", c.name, err.Error())
	}
	closed := c.Conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closed
		notify(c.Err, errors.New("connection closed"))
		notify(c.ApiErr, errors.New("api detect connection closed"))
	}()
	c.Channel, err = c.Conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %s", err)
	}
	// 一次最多取 ConcurrentAmount 筆未 ack 的工作
	prefetch := utils.EnvConfig.ConcurrentAmount
	if prefetch < 1 {
		prefetch = 1
	}
	if err := c.Channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %s", err)
	}
	return nil
}

func notify(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func (c *Connection) BindQueue() error {
	c.Lock()
	defer c.Unlock()
	if c.Channel == nil {
		return errors.New("bind queue: channel is not open")
	}
	for _, q := range c.Queues {
		if _, err := c.Channel.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("error in declaring the queue %s: %s", q, err)
		}
	}
	return nil
}

// Reconnect dials again and redeclares the queues.
func (c *Connection) Reconnect() error {
	if err := c.Connect(); err != nil {
		return err
	}
	return c.BindQueue()
}

// Consume registers a manual-ack consumer on every queue.
func (c *Connection) Consume() (map[string]<-chan amqp.Delivery, error) {
	c.Lock()
	defer c.Unlock()
	if c.Channel == nil {
		return nil, errors.New("consume: channel is not open")
	}
	m := make(map[string]<-chan amqp.Delivery)
	for _, q := range c.Queues {
		deliveries, err := c.Channel.Consume(q, c.name+"-"+q, false, false, false, false, nil)
		if err != nil {
			return nil, err
		}
		m[q] = deliveries
	}
	return m, nil
}

// IsConnected reports whether the broker connection is open.
func (c *Connection) IsConnected() bool {
	c.Lock()
	defer c.Unlock()
	return c.Conn != nil && !c.Conn.IsClosed()
}

// Inspect returns the broker's view of every queue, keyed by name.
func (c *Connection) Inspect() (map[string]amqp.Queue, error) {
	c.Lock()
	defer c.Unlock()
	if c.Channel == nil {
		return nil, errors.New("inspect: channel is not open")
	}
	queues := make(map[string]amqp.Queue, len(c.Queues))
	for _, q := range c.Queues {
		queue, err := c.Channel.QueueInspect(q)
		if err != nil {
			return queues, fmt.Errorf("Queue[%s] error: %s", q, err.Error())
		}
		queues[q] = queue
	}
	return queues, nil
}

// Publish sends a persistent message to its queue.
func (c *Connection) Publish(m Message) error {
	c.Lock()
	channel := c.Channel
	c.Unlock()
	if channel == nil {
		return fmt.Errorf("publish to %s: channel is not open", m.Queue)
	}
	contentType := m.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	return channel.Publish("", m.Queue, false, false, amqp.Publishing{
		ContentType:   contentType,
		CorrelationId: m.CorrelationID,
		Priority:      m.Priority,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
		Body:          m.Body,
	})
}

// Handler drains one queue's deliveries until the channel closes.
type Handler func(c *Connection, q string, deliveries <-chan amqp.Delivery)

const reconnectDelay = 60 * time.Second

// HandleConsumedDeliveries starts fn for every queue. Each time the
// connection drops it reconnects, consumes every queue again and restarts
// fn for all of them. It is the only place that reconnects the consumer.
func (c *Connection) HandleConsumedDeliveries(deliveries map[string]<-chan amqp.Delivery, fn Handler) {
	superviseDeliveries(c.Err, deliveries, c.resume, func(q string, d <-chan amqp.Delivery) {
		go fn(c, q, d)
	}, reconnectDelay)
}

func (c *Connection) resume() (map[string]<-chan amqp.Delivery, error) {
	if err := c.Reconnect(); err != nil {
		return nil, err
	}
	return c.Consume()
}

// superviseDeliveries starts every queue, then waits on errs; after each
// error it retries resume every retryDelay and starts every queue again.
// It returns when errs is closed.
func superviseDeliveries(errs <-chan error, deliveries map[string]<-chan amqp.Delivery, resume func() (map[string]<-chan amqp.Delivery, error), start func(q string, d <-chan amqp.Delivery), retryDelay time.Duration) {
	for q, d := range deliveries {
		fmt.Println("[HandleConsumedDeliveries]Delivery received", q)
		start(q, d)
	}
	for err := range errs {
		fmt.Println("connection lost:", err.Error())
		for {
			next, err := resume()
			if err != nil {
				fmt.Println("reconnect failed:", err.Error())
				time.Sleep(retryDelay)
				continue
			}
			fmt.Println("try ok")
			for q, d := range next {
				start(q, d)
			}
			break
		}
	}
}
