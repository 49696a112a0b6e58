package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
)

var _ = Describe("SuggestionService", func() {
	var (
		ctx    context.Context
		st     *store.MemorySuggestionStore
		events *recordingPublisher
		clock  time.Time
		svc    service.SuggestionService
	)

	now := func() time.Time { return clock }

	create := func(p model.Principal, title string) *model.Suggestion {
		sg, err := svc.Create(ctx, p, service.CreateSuggestionInput{Title: title, Description: "details for " + title})
		Expect(err).NotTo(HaveOccurred())
		return sg
	}

	BeforeEach(func() {
		ctx = context.Background()
		st = store.NewMemorySuggestionStore()
		events = &recordingPublisher{}
		clock = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		svc = service.NewSuggestionService(st, service.NewTxRunner(st, 0), events, id.NewString, now)
	})

	Describe("Create", func() {
		It("starts a suggestion as New with zeroed scores and empty collections", func() {
			sg, err := svc.Create(ctx, alice, service.CreateSuggestionInput{
				Title:       "  Add coffee machine ",
				Description: "The old one is broken",
				Departments: []string{"Facilities", " facilities ", ""},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(sg.ID).NotTo(BeEmpty())
			Expect(sg.Title).To(Equal("Add coffee machine"))
			Expect(sg.Status).To(Equal(model.StatusNew))
			Expect(sg.Votes).To(BeZero())
			Expect(sg.Comments).To(BeEmpty())
			Expect(sg.Activity).To(BeEmpty())
			Expect(sg.EffortScore).To(BeZero())
			Expect(sg.PriorityScore).To(BeZero())
			Expect(sg.Departments).To(Equal([]string{"Facilities"}))
			Expect(sg.Author).To(Equal("Alice Smith"))
			Expect(*sg.AuthorID).To(Equal("alice"))
			Expect(sg.Timestamp).To(Equal(clock))
			Expect(events.types()).To(Equal([]model.EventType{model.EventTypeSuggestionCreated}))

			stored, err := st.FindByID(ctx, sg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Title).To(Equal("Add coffee machine"))
		})

		It("hides the author name of anonymous suggestions but keeps ownership", func() {
			sg, err := svc.Create(ctx, alice, service.CreateSuggestionInput{Title: "Quiet room", Description: "please", IsAnonymous: true})

			Expect(err).NotTo(HaveOccurred())
			Expect(sg.Author).To(Equal(auth.AnonymousName))
			Expect(sg.IsAuthoredBy("alice")).To(BeTrue())
		})

		It("accepts a suggestion with only a title", func() {
			sg, err := svc.Create(ctx, bob, service.CreateSuggestionInput{Title: "Better coffee"})

			Expect(err).NotTo(HaveOccurred())
			Expect(sg.Description).To(BeEmpty())
			Expect(sg.Status).To(Equal(model.StatusNew))
		})

		DescribeTable("rejects invalid input",
			func(in service.CreateSuggestionInput) {
				_, err := svc.Create(ctx, alice, in)
				Expect(err).To(MatchError(service.ErrInvalidInput))
				Expect(service.KindOf(err)).To(Equal(model.ErrorKindInvalidInput))
			},
			Entry("missing title", service.CreateSuggestionInput{Title: "  ", Description: "x"}),
			Entry("overlong description", service.CreateSuggestionInput{Title: "x", Description: strings.Repeat("d", 10001)}),
			Entry("attachment without url", service.CreateSuggestionInput{Title: "x", Description: "y", Attachments: []model.Attachment{{Filename: "a.png"}}}),
		)
	})

	Describe("Update", func() {
		var sg *model.Suggestion

		BeforeEach(func() {
			sg = create(alice, "Add coffee machine")
		})

		It("records exactly one status activity when an admin changes the status", func() {
			clock = clock.Add(time.Hour)

			updated, err := svc.Update(ctx, admin, sg.ID, service.UpdateSuggestionInput{Status: statusPtr(model.StatusInProgress)})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(model.StatusInProgress))
			Expect(updated.Activity).To(HaveLen(1))
			a := updated.Activity[0]
			Expect(a.Type).To(Equal(model.ActivityTypeStatus))
			Expect(*a.From).To(Equal(model.StatusNew))
			Expect(*a.To).To(Equal(model.StatusInProgress))
			Expect(a.By).To(Equal("Ada Admin"))
			Expect(a.Timestamp).To(Equal(clock))
		})

		It("does not record activity when the status is unchanged", func() {
			updated, err := svc.Update(ctx, admin, sg.ID, service.UpdateSuggestionInput{Status: statusPtr(model.StatusNew)})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Activity).To(BeEmpty())
		})

		It("recomputes the priority when a score changes", func() {
			updated, err := svc.Update(ctx, admin, sg.ID, service.UpdateSuggestionInput{EffortScore: intPtr(2), ImpactScore: intPtr(4)})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.PriorityScore).To(Equal(16))
		})

		It("lets the author edit title and description", func() {
			updated, err := svc.Update(ctx, alice, sg.ID, service.UpdateSuggestionInput{Title: strPtr("Add two coffee machines")})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Title).To(Equal("Add two coffee machines"))
		})

		It("forbids other users from editing", func() {
			_, err := svc.Update(ctx, bob, sg.ID, service.UpdateSuggestionInput{Title: strPtr("Mine now")})

			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("forbids the author from touching admin-only fields", func() {
			_, err := svc.Update(ctx, alice, sg.ID, service.UpdateSuggestionInput{Status: statusPtr(model.StatusImplemented)})

			Expect(err).To(MatchError(service.ErrForbidden))
			Expect(service.KindOf(err)).To(Equal(model.ErrorKindForbidden))
			stored, _ := st.FindByID(ctx, sg.ID)
			Expect(stored.Status).To(Equal(model.StatusNew))
		})

		DescribeTable("rejects invalid admin input",
			func(in service.UpdateSuggestionInput) {
				_, err := svc.Update(ctx, admin, sg.ID, in)
				Expect(err).To(MatchError(service.ErrInvalidInput))
			},
			Entry("unknown status", service.UpdateSuggestionInput{Status: statusPtr("Shelved")}),
			Entry("manual merged status", service.UpdateSuggestionInput{Status: statusPtr(model.StatusMerged)}),
			Entry("effort too high", service.UpdateSuggestionInput{EffortScore: intPtr(6)}),
			Entry("negative impact", service.UpdateSuggestionInput{ImpactScore: intPtr(-1)}),
			Entry("nothing to update", service.UpdateSuggestionInput{}),
		)

		It("returns not found for unknown suggestions", func() {
			_, err := svc.Update(ctx, admin, "missing", service.UpdateSuggestionInput{Title: strPtr("x")})

			Expect(err).To(MatchError(service.ErrSuggestionNotFound))
			Expect(service.KindOf(err)).To(Equal(model.ErrorKindNotFound))
		})
	})

	Describe("Delete", func() {
		It("allows the author and admins but not others", func() {
			first := create(alice, "First")
			second := create(alice, "Second")

			Expect(svc.Delete(ctx, bob, first.ID)).To(MatchError(service.ErrForbidden))
			Expect(svc.Delete(ctx, alice, first.ID)).To(Succeed())
			Expect(svc.Delete(ctx, admin, second.ID)).To(Succeed())

			_, err := svc.Get(ctx, alice, first.ID)
			Expect(err).To(MatchError(service.ErrSuggestionNotFound))
		})
	})

	Describe("ToggleVote", func() {
		It("toggles a single user's vote on and off", func() {
			sg := create(alice, "Standing desks")

			voted, err := svc.ToggleVote(ctx, bob, sg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(voted.Votes).To(Equal(1))
			Expect(voted.Voters).To(Equal([]string{"bob"}))

			unvoted, err := svc.ToggleVote(ctx, bob, sg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unvoted.Votes).To(BeZero())
			Expect(unvoted.Voters).To(BeEmpty())
		})

		It("counts each distinct user once under concurrent toggles", func() {
			sg := create(alice, "Bike racks")
			const users = 20

			var wg sync.WaitGroup
			for i := range users {
				wg.Add(1)
				go func(userID string) {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := service.NewSuggestionService(st, service.NewTxRunner(st, 100), nil, id.NewString, now).
						ToggleVote(ctx, model.Principal{UserID: userID}, sg.ID)
					Expect(err).NotTo(HaveOccurred())
				}(fmt.Sprintf("user-%d", i))
			}
			wg.Wait()

			stored, err := st.FindByID(ctx, sg.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Votes).To(Equal(users))
			Expect(stored.Voters).To(HaveLen(users))
		})
	})

	Describe("moderation flags", func() {
		var sg *model.Suggestion

		BeforeEach(func() {
			sg = create(alice, "Flexible hours")
		})

		It("locks and unlocks with one activity each", func() {
			locked, err := svc.SetLocked(ctx, admin, sg.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(locked.IsLocked).To(BeTrue())

			unlocked, err := svc.SetLocked(ctx, admin, sg.ID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlocked.IsLocked).To(BeFalse())
			Expect(unlocked.Activity).To(HaveLen(2))
			Expect(unlocked.Activity[0].Type).To(Equal(model.ActivityTypeLock))
			Expect(unlocked.Activity[1].Type).To(Equal(model.ActivityTypeUnlock))
		})

		It("treats setting the current value as a no-op", func() {
			_, err := svc.SetPinned(ctx, admin, sg.ID, true)
			Expect(err).NotTo(HaveOccurred())

			again, err := svc.SetPinned(ctx, admin, sg.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.IsPinned).To(BeTrue())
			Expect(again.Activity).To(HaveLen(1))
			Expect(again.Activity[0].Type).To(Equal(model.ActivityTypePin))
		})

		It("is admin-only", func() {
			_, err := svc.SetLocked(ctx, alice, sg.ID, true)
			Expect(err).To(MatchError(service.ErrForbidden))

			_, err = svc.SetPinned(ctx, alice, sg.ID, true)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("List", func() {
		It("orders pinned first, then newest first, and filters by status", func() {
			old := create(alice, "Old")
			clock = clock.Add(time.Hour)
			newer := create(alice, "Newer")
			clock = clock.Add(time.Hour)
			newest := create(alice, "Newest")
			_, err := svc.SetPinned(ctx, admin, old.ID, true)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Update(ctx, admin, newest.ID, service.UpdateSuggestionInput{Status: statusPtr(model.StatusDeclined)})
			Expect(err).NotTo(HaveOccurred())

			all, err := svc.List(ctx, alice, service.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect([]string{all[0].ID, all[1].ID, all[2].ID}).To(Equal([]string{old.ID, newest.ID, newer.ID}))

			declined, err := svc.List(ctx, alice, service.ListFilter{Status: statusPtr(model.StatusDeclined)})
			Expect(err).NotTo(HaveOccurred())
			Expect(declined).To(HaveLen(1))
			Expect(declined[0].ID).To(Equal(newest.ID))
		})
	})
})

var _ = Describe("TxRunner", func() {
	var (
		ctx   context.Context
		inner *store.MemorySuggestionStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		inner = store.NewMemorySuggestionStore()
		sg := &model.Suggestion{ID: "s1", Title: "t", Status: model.StatusNew, Timestamp: time.Now()}
		sg.Normalize()
		Expect(inner.Create(ctx, sg)).To(Succeed())
	})

	It("reloads and reapplies after a version conflict", func() {
		conflicting := newConflictingStore(inner, 2)
		runner := service.NewTxRunner(conflicting, 5)
		calls := 0

		updated, err := runner.Mutate(ctx, "s1", func(sg *model.Suggestion) error {
			calls++
			sg.ToggleVote("bob")
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(3))
		Expect(updated.Votes).To(Equal(1))
		Expect(conflicting.writes.Load()).To(Equal(int32(3)))
	})

	It("gives up with a conflict error after the attempt limit", func() {
		conflicting := newConflictingStore(inner, 10)
		runner := service.NewTxRunner(conflicting, 3)

		_, err := runner.Mutate(ctx, "s1", func(sg *model.Suggestion) error {
			sg.ToggleVote("bob")
			return nil
		})

		Expect(err).To(MatchError(service.ErrConflict))
		Expect(service.KindOf(err)).To(Equal(model.ErrorKindConflict))
		Expect(conflicting.writes.Load()).To(Equal(int32(3)))
		stored, _ := inner.FindByID(ctx, "s1")
		Expect(stored.Votes).To(BeZero())
	})

	It("surfaces errors from the mutation without writing", func() {
		conflicting := newConflictingStore(inner, 0)
		runner := service.NewTxRunner(conflicting, 3)

		_, err := runner.Mutate(ctx, "s1", func(*model.Suggestion) error { return service.ErrSuggestionLocked })

		Expect(err).To(MatchError(service.ErrSuggestionLocked))
		Expect(conflicting.writes.Load()).To(BeZero())
	})
})
