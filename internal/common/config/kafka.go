package config

import (
	"github.com/IBM/sarama"
)

// NewSaramaConfig builds the producer configuration for the broker.
// The producer requires acknowledgement from all in-sync replicas and
// enables idempotent delivery so a retried send does not duplicate on
// the broker side. Idempotence requires MaxOpenRequests = 1.
func (c *Config) NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Net.MaxOpenRequests = 1
	return cfg
}
