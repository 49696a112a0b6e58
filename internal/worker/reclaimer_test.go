package worker_test

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/queue"
	"basegraph.app/suggestbox/internal/worker"
)

var _ = Describe("RedisReclaimer", func() {
	var (
		ctx      context.Context
		mr       *miniredis.Miniredis
		client   *redis.Client
		consumer *queue.RedisConsumer
		cfg      queue.ConsumerConfig
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

		cfg = queue.ConsumerConfig{
			Stream:    "suggestion_events",
			Group:     "suggestbox_group",
			Consumer:  "crashed-worker",
			DLQStream: "suggestion_events_dlq",
			BatchSize: 10,
			Block:     -1,
		}
		consumer, err = queue.NewRedisConsumer(ctx, client, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = client.Close()
		mr.Close()
	})

	It("claims and processes messages left pending by another consumer", func() {
		producer := queue.NewRedisProducer(client, cfg.Stream, nil)
		Expect(producer.Publish(ctx, model.Event{Type: model.EventTypeSuggestionCreated, SuggestionID: "9"})).To(Succeed())

		// read without ack, as if the worker died mid-message
		msgs, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))

		var seen []string
		process := func(ctx context.Context, msg queue.Message) error {
			seen = append(seen, msg.Event.SuggestionID)
			return consumer.Ack(ctx, msg)
		}
		reclaimer := worker.NewRedisReclaimer(client, worker.RedisReclaimerConfig{
			Stream:   cfg.Stream,
			Group:    cfg.Group,
			Consumer: "reclaimer",
		}, consumer, process)

		n, err := reclaimer.ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(seen).To(Equal([]string{"9"}))

		pending, err := client.XPending(ctx, cfg.Stream, cfg.Group).Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.Count).To(BeZero())
	})

	It("does nothing when nothing is pending", func() {
		reclaimer := worker.NewRedisReclaimer(client, worker.RedisReclaimerConfig{
			Stream:   cfg.Stream,
			Group:    cfg.Group,
			Consumer: "reclaimer",
		}, consumer, func(context.Context, queue.Message) error {
			Fail("processor should not run")
			return nil
		})

		n, err := reclaimer.ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})
})
