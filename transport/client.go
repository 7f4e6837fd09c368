package transport

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/chianfern/free-fleet/config"
	"github.com/chianfern/free-fleet/messages"
	"github.com/chianfern/free-fleet/robot"
)

// Client is the unified messaging client (MQTT or Kafka) satisfying
// manager.Transport. Inbound RobotState envelopes accumulate in an internal
// buffer fed by the backend's subscription callback; DrainStates empties it
// without blocking, as manager.Manager.RunOnce requires.
type Client struct {
	cfg     *config.MessagingConfig
	backend string

	mqttConn mqtt.Client
	kafkaW   *kafkago.Writer
	kafkaR   *kafkago.Reader

	mu      sync.Mutex
	pending []messages.RobotState
}

// New creates a messaging client based on cfg. Call Connect before using it.
func New(cfg *config.MessagingConfig) *Client {
	return &Client{cfg: cfg, backend: cfg.Backend}
}

// Connect establishes the messaging connection and subscribes to the
// configured state topic.
func (c *Client) Connect() error {
	switch c.backend {
	case "mqtt":
		if err := c.connectMQTT(); err != nil {
			return err
		}
	case "kafka":
		if err := c.connectKafka(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("transport: unknown messaging backend %q", c.backend)
	}
	return c.subscribeStates()
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("transport: mqtt connect: %w", err)
	}
	c.mqttConn = client
	return nil
}

func (c *Client) connectKafka() error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("transport: no kafka brokers configured")
	}
	c.kafkaW = &kafkago.Writer{
		Addr:         kafkago.TCP(c.cfg.Kafka.Brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	c.kafkaR = kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: c.cfg.Kafka.Brokers,
		Topic:   c.cfg.StateTopic,
		GroupID: c.cfg.Kafka.GroupID,
	})
	return nil
}

func (c *Client) subscribeStates() error {
	switch c.backend {
	case "mqtt":
		token := c.mqttConn.Subscribe(c.cfg.StateTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			c.handleInbound(msg.Payload())
		})
		token.Wait()
		return token.Error()
	case "kafka":
		go func() {
			for {
				msg, err := c.kafkaR.ReadMessage(context.Background())
				if err != nil {
					log.Printf("transport: kafka read: %v", err)
					return
				}
				c.handleInbound(msg.Value)
			}
		}()
		return nil
	}
	return nil
}

func (c *Client) handleInbound(payload []byte) {
	var env Envelope
	if err := decodeEnvelope(payload, &env); err != nil {
		log.Printf("transport: discarding malformed envelope: %v", err)
		return
	}
	if env.Type != typeRobotState {
		log.Printf("transport: discarding unexpected envelope type %q on state topic", env.Type)
		return
	}
	state, err := decodeRobotState(env.Payload)
	if err != nil {
		log.Printf("transport: discarding invalid robot state: %v", err)
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, state)
	c.mu.Unlock()
}

// DrainStates returns and clears everything accumulated since the last
// call. Never blocks.
func (c *Client) DrainStates() []messages.RobotState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

func (c *Client) commandTopic(robotName string) string {
	return c.cfg.CommandTopicPrefix + robotName
}

func (c *Client) publish(topic string, payload []byte) error {
	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil || !c.mqttConn.IsConnected() {
			return fmt.Errorf("transport: mqtt not connected")
		}
		token := c.mqttConn.Publish(topic, 1, false, payload)
		token.Wait()
		return token.Error()
	case "kafka":
		if c.kafkaW == nil {
			return fmt.Errorf("transport: kafka writer not initialized")
		}
		return c.kafkaW.WriteMessages(context.Background(), kafkago.Message{Topic: topic, Value: payload})
	default:
		return fmt.Errorf("transport: unknown backend %q", c.backend)
	}
}

// SendModeRequest publishes a Mode command envelope for robotName.
func (c *Client) SendModeRequest(robotName string, req robot.Request) error {
	payload := wireModeRequest{
		CommandID: uint32(req.Id),
		ModeKind:  int(req.ModeKind),
		DockName:  req.DockName,
	}
	env, err := newEnvelope(typeModeRequest, robotName, payload)
	if err != nil {
		return err
	}
	return c.sendEnvelope(robotName, env)
}

// SendNavigationRequest publishes a Navigation command envelope for robotName.
func (c *Client) SendNavigationRequest(robotName string, req robot.Request) error {
	path := make([]wireNavigationPoint, len(req.Path))
	for i, p := range req.Path {
		path[i] = wireNavigationPoint{WaypointIndex: p.WaypointIndex, Yaw: p.Yaw, WaitUntil: p.WaitUntil}
	}
	payload := wireNavigationRequest{CommandID: uint32(req.Id), Path: path}
	env, err := newEnvelope(typeNavigationRequest, robotName, payload)
	if err != nil {
		return err
	}
	return c.sendEnvelope(robotName, env)
}

// SendRelocalizationRequest publishes a Relocalization command envelope for robotName.
func (c *Client) SendRelocalizationRequest(robotName string, req robot.Request) error {
	payload := wireRelocalizationRequest{
		CommandID:                uint32(req.Id),
		Location:                 toWireLocation(req.Location),
		LastVisitedWaypointIndex: req.LastVisitedWaypointIndex,
	}
	env, err := newEnvelope(typeRelocalizationRequest, robotName, payload)
	if err != nil {
		return err
	}
	return c.sendEnvelope(robotName, env)
}

func (c *Client) sendEnvelope(robotName string, env Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("transport: encode envelope: %w", err)
	}
	return c.publish(c.commandTopic(robotName), data)
}

// Close shuts down the messaging connection.
func (c *Client) Close() {
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	if c.kafkaW != nil {
		c.kafkaW.Close()
		c.kafkaW = nil
	}
	if c.kafkaR != nil {
		c.kafkaR.Close()
		c.kafkaR = nil
	}
}
