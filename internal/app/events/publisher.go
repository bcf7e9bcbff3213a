// Package events publishes domain events to Kafka. Publishing is optional;
// the service runs fine without a broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ledgerworks/erp/internal/app/domain/ledger"
	"github.com/ledgerworks/erp/internal/logging"
)

// TransactionPostedEvent is the envelope written for each posted transaction.
type TransactionPostedEvent struct {
	AcctgTransID        string    `json:"acctgTransId"`
	OrganizationPartyID string    `json:"organizationPartyId"`
	TransactionDate     time.Time `json:"transactionDate"`
	PostedDate          time.Time `json:"postedDate"`
	EntryCount          int       `json:"entryCount"`
	OccurredAt          time.Time `json:"occurredAt"`
}

// Publisher writes posted-transaction events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	log    *logging.Logger
}

// NewPublisher builds a publisher for the brokers and topic. Returns nil when
// no brokers are configured, which disables publishing.
func NewPublisher(brokers []string, topic string, log *logging.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	if log == nil {
		log = logging.NewDefault("events")
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		log: log,
	}
}

// PublishTransactionPosted writes one event keyed by organization so events
// for one organization stay ordered.
func (p *Publisher) PublishTransactionPosted(ctx context.Context, trans ledger.AcctgTrans, entries []ledger.AcctgTransEntry) error {
	event := TransactionPostedEvent{
		AcctgTransID:        trans.AcctgTransID,
		OrganizationPartyID: trans.OrganizationPartyID,
		TransactionDate:     trans.TransactionDate,
		EntryCount:          len(entries),
		OccurredAt:          time.Now().UTC(),
	}
	if trans.PostedDate != nil {
		event.PostedDate = *trans.PostedDate
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(trans.OrganizationPartyID),
		Value: payload,
	})
	if err != nil {
		return err
	}
	p.log.WithContext(ctx).
		WithField("acctg_trans_id", trans.AcctgTransID).
		Debug("posted-transaction event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
