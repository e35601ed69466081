package mq

import (
	"log"

	"recruitdesk/internal/config"

	"github.com/IBM/sarama"
)

var KafkaProducer sarama.SyncProducer

// InitKafka creates the sync producer for the payment-events topic.
func InitKafka(cfg *config.KafkaConfig) sarama.SyncProducer {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		log.Fatalf("failed to create Kafka producer: %v", err)
	}

	KafkaProducer = producer
	log.Println("Kafka producer ready")
	return producer
}

func SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	_, _, err := KafkaProducer.SendMessage(msg)
	return err
}

func CloseKafka() {
	if KafkaProducer != nil {
		KafkaProducer.Close()
	}
}
