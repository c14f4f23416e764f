package ordering

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

type KafkaProducerSettings struct {
	Brokers  []string
	Topic    string
	ClientId string
	Linger   time.Duration
	Tls      KafkaTlsSettings
}

type KafkaTlsSettings struct {
	Enabled            bool
	InsecureSkipVerify bool
}

func DefaultKafkaProducerSettings() *KafkaProducerSettings {
	return &KafkaProducerSettings{
		Brokers: []string{"localhost:9092"},
		Topic:   "rawdeltas",
		Linger:  5 * time.Millisecond,
	}
}

// KafkaProducer pushes envelopes onto a kafka topic. The partition key
// becomes the record key, so kafka's per-partition ordering gives all
// envelopes for one document a single ordered stream.
type KafkaProducer struct {
	topic  string
	client *kgo.Client
}

func NewKafkaProducer(settings *KafkaProducerSettings) (*KafkaProducer, error) {
	if len(settings.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if settings.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(settings.Brokers...),
		kgo.DefaultProduceTopic(settings.Topic),
		kgo.ProducerLinger(settings.Linger),
		// partition-level ordering requires in-flight sends to not
		// overtake each other
		kgo.MaxProduceRequestsInflightPerBroker(1),
	}
	if settings.ClientId != "" {
		opts = append(opts, kgo.ClientID(settings.ClientId))
	}
	if settings.Tls.Enabled {
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{InsecureSkipVerify: settings.Tls.InsecureSkipVerify}))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &KafkaProducer{
		topic:  settings.Topic,
		client: client,
	}, nil
}

func (self *KafkaProducer) Send(ctx context.Context, message []byte, partitionKey string) error {
	record := &kgo.Record{
		Topic: self.topic,
		Key:   []byte(partitionKey),
		Value: message,
	}
	return self.client.ProduceSync(ctx, record).FirstErr()
}

func (self *KafkaProducer) Close() {
	self.client.Close()
}
