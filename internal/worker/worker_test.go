package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/queue"
	"basegraph.app/suggestbox/internal/worker"
)

var _ = Describe("SearchSyncProcessor", func() {
	var (
		ctx     context.Context
		indexer *mockIndexer
		proc    *worker.SearchSyncProcessor
	)

	BeforeEach(func() {
		ctx = context.Background()
		indexer = &mockIndexer{}
		proc = worker.NewSearchSyncProcessor(indexer)
	})

	DescribeTable("re-indexes on changes",
		func(typ model.EventType) {
			Expect(proc.Process(ctx, model.Event{Type: typ, SuggestionID: "42"})).To(Succeed())
			Expect(indexer.indexed).To(Equal([]string{"42"}))
			Expect(indexer.removed).To(BeEmpty())
		},
		Entry("created", model.EventTypeSuggestionCreated),
		Entry("updated", model.EventTypeSuggestionUpdated),
		Entry("voted", model.EventTypeSuggestionVoted),
		Entry("commented", model.EventTypeSuggestionCommented),
		Entry("merged", model.EventTypeSuggestionMerged),
	)

	It("removes deleted suggestions", func() {
		Expect(proc.Process(ctx, model.Event{Type: model.EventTypeSuggestionDeleted, SuggestionID: "42"})).To(Succeed())
		Expect(indexer.removed).To(Equal([]string{"42"}))
	})

	It("rejects unknown event types", func() {
		Expect(proc.Process(ctx, model.Event{Type: "bogus", SuggestionID: "42"})).NotTo(Succeed())
	})
})

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		consumer *mockConsumer
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		consumer = &mockConsumer{}
	})

	AfterEach(func() {
		cancel()
	})

	It("acks processed messages", func() {
		indexer := &mockIndexer{}
		w := worker.New(consumer, worker.NewSearchSyncProcessor(indexer), worker.Config{MaxAttempts: 3})

		Expect(w.ProcessMessage(ctx, message("1-0", model.EventTypeSuggestionCreated, "7", 1))).To(Succeed())

		acked, _, _ := consumer.snapshot()
		Expect(acked).To(Equal([]string{"1-0"}))
		Expect(indexer.indexed).To(Equal([]string{"7"}))
	})

	It("requeues failures below the attempt limit and dead-letters the rest", func() {
		consumer.batches = [][]queue.Message{{
			message("1-0", model.EventTypeSuggestionUpdated, "7", 1),
			message("2-0", model.EventTypeSuggestionUpdated, "8", 3),
		}}
		failing := processorFunc(func(context.Context, model.Event) error { return errors.New("index down") })
		w := worker.New(consumer, failing, worker.Config{MaxAttempts: 3})

		go func() { _ = w.Run(ctx) }()

		Eventually(func() []string {
			_, requeued, _ := consumer.snapshot()
			return requeued
		}).Should(Equal([]string{"1-0"}))
		Eventually(func() []string {
			_, _, dlq := consumer.snapshot()
			return dlq
		}).Should(Equal([]string{"2-0"}))

		w.Stop()
		acked, _, _ := consumer.snapshot()
		Expect(acked).To(BeEmpty())
	})

	It("turns processor panics into failures", func() {
		panicking := processorFunc(func(context.Context, model.Event) error { panic("boom") })
		w := worker.New(consumer, panicking, worker.Config{MaxAttempts: 3})

		err := w.ProcessMessage(ctx, message("1-0", model.EventTypeSuggestionVoted, "7", 1))

		Expect(err).To(MatchError(ContainSubstring("panic")))
		acked, _, _ := consumer.snapshot()
		Expect(acked).To(BeEmpty())
	})

	It("stops promptly", func() {
		w := worker.New(consumer, processorFunc(func(context.Context, model.Event) error { return nil }), worker.Config{})
		done := make(chan struct{})
		go func() {
			_ = w.Run(ctx)
			close(done)
		}()

		w.Stop()
		Eventually(done, time.Second).Should(BeClosed())
	})
})
