//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"idlookup/internal/audit"
	"idlookup/internal/platform/kafka/producer"
	"idlookup/pkg/testutil/containers"
)

const auditTopic = "identity.audit.test"

type KafkaSinkSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	prod, err := producer.New(producer.Config{
		Brokers:         []string{s.kafka.Brokers},
		Acks:            "all",
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
	s.Require().NoError(s.producer.EnsureTopic(context.Background(), auditTopic, 1, 1))
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

func (s *KafkaSinkSuite) TestPublishedEventIsConsumable() {
	ctx := context.Background()
	publisher := audit.NewPublisher(audit.NewKafkaSink(s.producer, auditTopic))

	s.Require().NoError(publisher.Emit(ctx, audit.Event{
		Action:       audit.ActionIdentityResolved,
		IDHash:       "feedfacecafebeef",
		IsNewUser:    true,
		SearchCount:  1,
		HolidayCount: 1,
	}))

	consumer, err := s.kafka.NewConsumer(auditTopic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 15*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "feedfacecafebeef"
	})
	s.Require().NotNil(record)

	var event audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &event))
	s.Equal(audit.ActionIdentityResolved, event.Action)
	s.True(event.IsNewUser)
	s.NotEmpty(event.ID)
}
