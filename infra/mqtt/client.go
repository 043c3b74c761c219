// Package mqtt adapts an Eclipse Paho broker connection to the ingest
// pipeline: command-topic messages become chunk events, and lifecycle
// markers are published on a debug topic.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/roverlink/roverd/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string          `json:"broker"`
	ClientID     string          `json:"client_id"`
	Username     string          `json:"username"`
	Password     string          `json:"password"`
	CommandTopic string          `json:"command_topic"`
	DebugTopic   string          `json:"debug_topic"`
	UseTLS       bool            `json:"use_tls"`
	ClientCert   string          `json:"client_cert"`
	ClientKey    string          `json:"client_key"`
	CABundle     string          `json:"ca_bundle"`
	AuthMethod   string          `json:"auth_method"`
	QoS          map[string]byte `json:"qos"`
	LWTTopic     string          `json:"lwt_topic"`
	LWTPayload   string          `json:"lwt_payload"`
	LWTQoS       byte            `json:"lwt_qos"`
	LWTRetain    bool            `json:"lwt_retain"`
	MaxRetries   int             `json:"max_retries"`
	BackoffMS    int             `json:"backoff_ms"`
	TLSConfig    *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "roverd-" + uuid.NewString()
	}
	if c.CommandTopic == "" {
		c.CommandTopic = "robot/command"
	}
	if c.DebugTopic == "" {
		c.DebugTopic = "robot/debug"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "tls", "both":
	default:
		return fmt.Errorf("unknown auth_method %s", c.AuthMethod)
	}
	return nil
}

// ChunkHandler consumes one transport fragment of a command payload.
type ChunkHandler func(offset uint32, data []byte, totalLen uint32)

// StateHandler observes broker connectivity changes.
type StateHandler func(connected bool)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient bridges the broker and the ingest pipeline.
type PahoClient struct {
	cli          pahoClient
	commandTopic string
	debugTopic   string
	qos          map[string]byte
	maxRetries   int
	backoff      time.Duration
	onChunk      ChunkHandler
	onState      StateHandler
	logger       logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the command
// topic. The initial connect is retried up to MaxRetries times with
// exponential backoff; once established, Paho's auto-reconnect takes over.
// onState may be nil.
func NewPahoClient(cfg Config, onChunk ChunkHandler, onState StateHandler) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		commandTopic: cfg.CommandTopic,
		debugTopic:   cfg.DebugTopic,
		qos:          cfg.QoS,
		maxRetries:   cfg.MaxRetries,
		backoff:      time.Duration(cfg.BackoffMS) * time.Millisecond,
		onChunk:      onChunk,
		onState:      onState,
		logger:       log,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.notify(true)
		pc.PublishDebug("connected")
		qos := byte(1)
		if q, ok := pc.qos["command"]; ok {
			qos = q
		}
		if token := c.Subscribe(pc.commandTopic, qos, pc.handleMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			return
		}
		log.Infof("subscribed to %s", pc.commandTopic)
		pc.PublishDebug("subscribed")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		pc.notify(false)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	pc.cli = c

	var connectErr error
	for attempt := 0; attempt <= pc.maxRetries; attempt++ {
		token := c.Connect()
		token.Wait()
		connectErr = token.Error()
		if connectErr == nil {
			return pc, nil
		}
		log.Warnf("connect attempt %d/%d failed: %v", attempt+1, pc.maxRetries+1, connectErr)
		time.Sleep(pc.backoff * time.Duration(1<<attempt))
	}
	return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, connectErr)
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetKeepAlive(10 * time.Second)
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// handleMessage turns one broker message into a single offset-0 chunk whose
// total length equals the payload length. Senders that pre-fragment a large
// payload address later fragments by cumulative offset themselves.
func (p *PahoClient) handleMessage(_ paho.Client, msg paho.Message) {
	payload := msg.Payload()
	p.logger.Debugf("command message len=%d topic=%s", len(payload), msg.Topic())
	if p.onChunk == nil || len(payload) == 0 {
		return
	}
	p.onChunk(0, payload, uint32(len(payload)))
}

// PublishDebug sends a QoS0, non-retained marker on the debug topic.
func (p *PahoClient) PublishDebug(payload string) {
	if p.cli == nil {
		return
	}
	token := p.cli.Publish(p.debugTopic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.logger.Errorf("debug publish failed: %v", err)
	}
}

// PublishCommand publishes an envelope on the command topic at QoS1,
// retrying with exponential backoff.
func (p *PahoClient) PublishCommand(payload []byte) error {
	qos := byte(1)
	if q, ok := p.qos["command"]; ok {
		qos = q
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.commandTopic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published command to %s", p.commandTopic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

func (p *PahoClient) notify(connected bool) {
	if p.onState != nil {
		p.onState(connected)
	}
}
