package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/siamese/pkg/eventstream"
	"github.com/papercomputeco/siamese/pkg/eventstream/kafka"
)

var _ = Describe("NewPublisher", func() {
	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
		Expect(err).To(HaveOccurred())
	})

	It("requires a topic", func() {
		_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(HaveOccurred())
	})

	It("builds a publisher without connecting", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "siamese.training"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})
})

var _ = Describe("Message", func() {
	It("keys messages by run id", func() {
		ev := eventstream.NewRunFinishedEvent("run-9", eventstream.RunMeta{Status: "completed", Epochs: 7})
		msg, err := kafka.Message(ev)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(msg.Key)).To(Equal("run-9"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeRunFinished)}))

		var decoded eventstream.TrainingEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.Run.Epochs).To(Equal(7))
	})

	It("rejects nil events", func() {
		_, err := kafka.Message(nil)
		Expect(err).To(MatchError(eventstream.ErrNilEvent))
	})
})

var _ = Describe("Publish", func() {
	It("writes one message per event", func() {
		var got []kafkago.Message
		p := kafka.NewPublisherWithWriter(func(_ context.Context, msgs ...kafkago.Message) error {
			got = append(got, msgs...)
			return nil
		})

		ev := eventstream.NewRunFinishedEvent("run-1", eventstream.RunMeta{Status: "failed"})
		Expect(p.Publish(context.Background(), ev)).To(Succeed())
		Expect(got).To(HaveLen(1))
	})

	It("wraps writer failures", func() {
		p := kafka.NewPublisherWithWriter(func(context.Context, ...kafkago.Message) error {
			return errors.New("broker down")
		})
		ev := eventstream.NewRunFinishedEvent("run-1", eventstream.RunMeta{Status: "failed"})
		Expect(p.Publish(context.Background(), ev)).To(MatchError(ContainSubstring("broker down")))
	})
})
