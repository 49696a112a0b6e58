package worker_test

import (
	"context"
	"errors"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
	"basegraph.app/suggestbox/internal/worker"
)

var _ = Describe("Sweeper", func() {
	It("deletes a merge source that survived its merge", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		st := store.NewMemorySuggestionStore()
		now := time.Now()
		source := &model.Suggestion{ID: "src", Title: "Source", Status: model.StatusNew, Timestamp: now}
		source.Normalize()
		target := &model.Suggestion{ID: "tgt", Title: "Target", Status: model.StatusNew, Timestamp: now}
		target.Normalize()
		counter := 0
		service.ApplyMerge(target, *source, service.MergeActor{
			Name: "Admin",
			Now:  now,
			NewID: func() string {
				counter++
				return "gen-" + strconv.Itoa(counter)
			},
		})
		Expect(st.Create(ctx, source)).To(Succeed())
		Expect(st.Create(ctx, target)).To(Succeed())

		merges := service.NewMergeService(st, nil, id.NewString, time.Now, 0)
		sweeper := worker.NewSweeper(merges, time.Hour)
		go sweeper.Run(ctx)

		Eventually(func() error {
			_, err := st.FindByID(ctx, "src")
			return err
		}).Should(MatchError(store.ErrNotFound))
		_, err := st.FindByID(ctx, "tgt")
		Expect(errors.Is(err, store.ErrNotFound)).To(BeFalse())

		sweeper.Stop()
	})
})
