package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Amqp    AmqpConfig    `mapstructure:"amqp"`
	Orderer OrdererConfig `mapstructure:"orderer"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
}

type KafkaConfig struct {
	Brokers            []string      `mapstructure:"brokers"`
	Topic              string        `mapstructure:"topic"`
	ClientId           string        `mapstructure:"client_id"`
	Linger             time.Duration `mapstructure:"linger"`
	TlsEnabled         bool          `mapstructure:"tls_enabled"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

type AmqpConfig struct {
	Url      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type OrdererConfig struct {
	MaxMessageSize        int           `mapstructure:"max_message_size"`
	EnforceMaxMessageSize bool          `mapstructure:"enforce_max_message_size"`
	Ttl                   time.Duration `mapstructure:"ttl"`
	CacheCapacity         uint64        `mapstructure:"cache_capacity"`
	PassthroughTypes      []string      `mapstructure:"passthrough_types"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ordering")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaultSettings := DefaultOrdererFactorySettings()
	defaultKafka := DefaultKafkaProducerSettings()
	defaultAmqp := DefaultAmqpContentPublisherSettings()

	v.SetDefault("service.name", defaultSettings.ServiceName)
	v.SetDefault("kafka.brokers", defaultKafka.Brokers)
	v.SetDefault("kafka.topic", defaultKafka.Topic)
	v.SetDefault("kafka.linger", defaultKafka.Linger)
	v.SetDefault("amqp.url", defaultAmqp.Url)
	v.SetDefault("amqp.exchange", defaultAmqp.Exchange)
	v.SetDefault("orderer.max_message_size", 16*1024)
	v.SetDefault("orderer.ttl", defaultSettings.OrdererTtl)
	v.SetDefault("orderer.cache_capacity", defaultSettings.OrdererCacheCapacity)
	v.SetDefault("orderer.passthrough_types", defaultSettings.PassthroughTypes)
}

func (self *Config) Validate() error {
	if self.Service.Name == "" {
		return fmt.Errorf("service.name is required")
	}
	if len(self.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if self.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if self.Amqp.Exchange == "" {
		return fmt.Errorf("amqp.exchange is required")
	}
	if self.Orderer.MaxMessageSize < 1 {
		return fmt.Errorf("orderer.max_message_size must be >= 1")
	}
	if self.Orderer.CacheCapacity < 1 {
		return fmt.Errorf("orderer.cache_capacity must be >= 1")
	}
	return nil
}

func (self *Config) FactorySettings() *OrdererFactorySettings {
	settings := DefaultOrdererFactorySettings()
	settings.ServiceName = self.Service.Name
	settings.OrdererTtl = self.Orderer.Ttl
	settings.OrdererCacheCapacity = self.Orderer.CacheCapacity
	settings.PassthroughTypes = self.Orderer.PassthroughTypes
	settings.EnforceMaxMessageSize = self.Orderer.EnforceMaxMessageSize
	return settings
}

func (self *Config) KafkaSettings() *KafkaProducerSettings {
	settings := DefaultKafkaProducerSettings()
	settings.Brokers = self.Kafka.Brokers
	settings.Topic = self.Kafka.Topic
	settings.ClientId = self.Kafka.ClientId
	if 0 < self.Kafka.Linger {
		settings.Linger = self.Kafka.Linger
	}
	settings.Tls = KafkaTlsSettings{
		Enabled:            self.Kafka.TlsEnabled,
		InsecureSkipVerify: self.Kafka.InsecureSkipVerify,
	}
	return settings
}

func (self *Config) AmqpSettings() *AmqpContentPublisherSettings {
	return &AmqpContentPublisherSettings{
		Url:      self.Amqp.Url,
		Exchange: self.Amqp.Exchange,
	}
}
