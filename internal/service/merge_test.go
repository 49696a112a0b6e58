package service_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
)

var _ = Describe("MergeService", func() {
	var (
		ctx    context.Context
		st     *store.MemorySuggestionStore
		events *recordingPublisher
		merges service.MergeService
		clock  time.Time
	)

	now := func() time.Time { return clock }

	seed := func(sg model.Suggestion) {
		sg.Normalize()
		Expect(st.Create(ctx, &sg)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		st = store.NewMemorySuggestionStore()
		events = &recordingPublisher{}
		clock = time.Date(2026, 4, 3, 15, 0, 0, 0, time.UTC)
		merges = service.NewMergeService(st, events, id.NewString, now, 0)

		seed(model.Suggestion{
			ID:        "A",
			Title:     "Coffee machine",
			Author:    "Alice Smith",
			AuthorID:  strPtr("alice"),
			Status:    model.StatusUnderReview,
			Votes:     3,
			Voters:    []string{"u1", "u2", "u3"},
			Comments:  []model.Comment{{ID: "a-c1", Text: "agreed", Author: "U1", Timestamp: clock}},
			Timestamp: clock.Add(-48 * time.Hour),
		})
		seed(model.Suggestion{
			ID:          "B",
			Title:       "Espresso maker",
			Description: "We need real espresso",
			Author:      "Bob Jones",
			AuthorID:    strPtr("bob"),
			Status:      model.StatusNew,
			Votes:       2,
			Voters:      []string{"u2", "u4"},
			Attachments: []model.Attachment{{URL: "/uploads/beans.png", Filename: "beans.png", ContentType: "image/png", IsImage: true}},
			Comments: []model.Comment{
				{ID: "b-c1", Text: "yes", Author: "U4", Likes: 1, LikedBy: []string{"u1"}, Timestamp: clock},
				{ID: "b-c2", Text: "double shot", Author: "U2", Timestamp: clock},
			},
			Timestamp: clock.Add(-24 * time.Hour),
		})
	})

	It("folds the source into the target and deletes the source", func() {
		merged, err := merges.Merge(ctx, admin, "A", "B")

		Expect(err).NotTo(HaveOccurred())
		Expect(merged.Votes).To(Equal(5))
		Expect(merged.Voters).To(Equal([]string{"u1", "u2", "u3", "u4"}))
		Expect(merged.Comments).To(HaveLen(1 + 2 + 1))

		description := merged.Comments[1]
		Expect(description.IsMergeDescription).To(BeTrue())
		Expect(description.FromMerged).To(BeTrue())
		Expect(description.Text).To(Equal("We need real espresso"))
		Expect(description.Author).To(Equal("Bob Jones"))
		Expect(description.AuthorInitial).To(Equal("B"))
		Expect(*description.OriginalSuggestionID).To(Equal("B"))
		Expect(*description.OriginalSuggestionTitle).To(Equal("Espresso maker"))
		Expect(description.Attachments).To(HaveLen(1))

		for _, copied := range merged.Comments[2:] {
			Expect(copied.FromMerged).To(BeTrue())
			Expect(copied.IsMergeDescription).To(BeFalse())
			Expect(copied.ID).NotTo(BeElementOf("b-c1", "b-c2"))
			Expect(*copied.OriginalSuggestionID).To(Equal("B"))
		}
		Expect(merged.Comments[2].Likes).To(Equal(1))
		Expect(merged.Comments[2].LikedBy).To(Equal([]string{"u1"}))

		Expect(merged.Activity).To(HaveLen(1))
		Expect(merged.Activity[0].Type).To(Equal(model.ActivityTypeMerge))
		Expect(*merged.Activity[0].SourceID).To(Equal("B"))
		Expect(merged.MergedWith).To(Equal([]model.MergedSuggestionRef{{ID: "B", Title: "Espresso maker", Timestamp: clock}}))

		_, err = st.FindByID(ctx, "B")
		Expect(err).To(MatchError(store.ErrNotFound))
		stored, err := st.FindByID(ctx, "A")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Votes).To(Equal(5))

		Expect(events.types()).To(Equal([]model.EventType{model.EventTypeSuggestionMerged, model.EventTypeSuggestionDeleted}))
	})

	It("leaves both documents untouched when a non-admin tries to merge", func() {
		before := func() []byte {
			a, _ := st.FindByID(ctx, "A")
			b, _ := st.FindByID(ctx, "B")
			raw, err := json.Marshal([]any{a, b, a.Version, b.Version})
			Expect(err).NotTo(HaveOccurred())
			return raw
		}
		snapshot := before()

		_, err := merges.Merge(ctx, alice, "A", "B")

		Expect(err).To(MatchError(service.ErrForbidden))
		Expect(before()).To(Equal(snapshot))
		Expect(events.types()).To(BeEmpty())
	})

	It("rejects merging a suggestion into itself", func() {
		_, err := merges.Merge(ctx, admin, "A", "A")
		Expect(err).To(MatchError(service.ErrInvalidInput))
	})

	It("returns not found when either side is missing", func() {
		_, err := merges.Merge(ctx, admin, "A", "missing")
		Expect(err).To(MatchError(service.ErrSuggestionNotFound))

		_, err = merges.Merge(ctx, admin, "missing", "B")
		Expect(err).To(MatchError(service.ErrSuggestionNotFound))
	})

	It("retries the whole merge after a version conflict", func() {
		conflicting := newConflictingStore(st, 1)
		retrying := service.NewMergeService(conflicting, nil, id.NewString, now, 3)

		merged, err := retrying.Merge(ctx, admin, "A", "B")

		Expect(err).NotTo(HaveOccurred())
		Expect(merged.Votes).To(Equal(5))
		Expect(merged.Activity).To(HaveLen(1))
		Expect(conflicting.writes.Load()).To(Equal(int32(2)))
	})

	It("does not fold twice when the target already records the merge", func() {
		target, _ := st.FindByID(ctx, "A")
		source, _ := st.FindByID(ctx, "B")
		service.ApplyMerge(target, *source, service.MergeActor{Name: "Ada Admin", Now: clock, NewID: id.NewString})
		Expect(st.Replace(ctx, target)).To(Succeed())

		merged, err := merges.Merge(ctx, admin, "A", "B")

		Expect(err).NotTo(HaveOccurred())
		Expect(merged.Votes).To(Equal(5))
		Expect(merged.Activity).To(HaveLen(1))
		Expect(merged.Comments).To(HaveLen(4))
		_, err = st.FindByID(ctx, "B")
		Expect(err).To(MatchError(store.ErrNotFound))
	})

	Describe("Sweep", func() {
		It("deletes sources whose merge already landed in a target", func() {
			target, _ := st.FindByID(ctx, "A")
			source, _ := st.FindByID(ctx, "B")
			service.ApplyMerge(target, *source, service.MergeActor{Name: "Ada Admin", Now: clock, NewID: id.NewString})
			Expect(st.Replace(ctx, target)).To(Succeed())

			result, err := merges.Sweep(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Scanned).To(Equal(2))
			Expect(result.Deleted).To(Equal([]string{"B"}))
			_, err = st.FindByID(ctx, "B")
			Expect(err).To(MatchError(store.ErrNotFound))
			_, err = st.FindByID(ctx, "A")
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes nothing when there are no orphans", func() {
			result, err := merges.Sweep(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Deleted).To(BeEmpty())
		})
	})
})
