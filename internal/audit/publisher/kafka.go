// Package publisher streams committed audit entries to Kafka. Entries are
// written to the audit_logs table inside the lifecycle transaction and
// drained to the broker afterwards, so the stream reflects only committed
// transitions.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"procurement/internal/audit"
)

// Kafka publishes audit entries with franz-go.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and makes sure the audit topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &Kafka{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publish sends the entries synchronously. Keyed by entity so consumers see
// each invoice's trail in order.
func (k *Kafka) Publish(ctx context.Context, entries []*audit.Entry) error {
	records := make([]*kgo.Record, 0, len(entries))
	for _, entry := range entries {
		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode audit entry %d: %w", entry.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(entry.EntityType + ":" + strconv.FormatInt(entry.EntityID, 10)),
			Value: value,
		})
	}
	if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}
	return nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
