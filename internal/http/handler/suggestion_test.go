package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/suggestbox/internal/http/handler"
	"basegraph.app/suggestbox/internal/http/middleware"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/service"
)

func newSuggestionRouter(svc *mockSuggestionService, searcher *mockSearcher, production bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handler.NewSuggestionHandler(svc, searcher, production)

	api := router.Group("/api/suggestions")
	api.Use(middleware.RequirePrincipal(headerExtractor{}))
	{
		api.GET("", h.List)
		api.POST("", h.Create)
		api.GET("/search", h.Search)
		api.GET("/:id", h.Get)
		api.PUT("/:id", h.Update)
		api.DELETE("/:id", h.Delete)
		api.POST("/:id/vote", h.Vote)
		api.PUT("/:id/lock", h.Lock)
		api.PUT("/:id/pin", h.Pin)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	if user == "admin" {
		req.Header.Set("X-Test-Admin", "true")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var out T
	Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
	return out
}

func sampleSuggestion(id string) *model.Suggestion {
	return &model.Suggestion{
		ID:          id,
		Title:       "Bike racks",
		Description: "Covered bike racks by the entrance",
		Author:      "User alice",
		AuthorID:    strPtr("alice"),
		Status:      model.StatusNew,
		Voters:      []string{"bob"},
		Votes:       1,
		Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("SuggestionHandler", func() {
	var (
		router   *gin.Engine
		svc      *mockSuggestionService
		searcher *mockSearcher
	)

	BeforeEach(func() {
		svc = &mockSuggestionService{}
		searcher = &mockSearcher{}
		router = newSuggestionRouter(svc, searcher, false)
	})

	It("returns 401 with an error body when the principal header is missing", func() {
		w := doRequest(router, http.MethodGet, "/api/suggestions", "", nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		resp := decode[map[string]any](w)
		Expect(resp["code"]).To(Equal("unauthenticated"))
		Expect(resp["message"]).NotTo(BeEmpty())
	})

	Describe("List", func() {
		It("passes the status filter and renders suggestions for the viewer", func() {
			var gotFilter service.ListFilter
			svc.listFn = func(_ context.Context, _ model.Principal, filter service.ListFilter) ([]model.Suggestion, error) {
				gotFilter = filter
				return []model.Suggestion{*sampleSuggestion("1")}, nil
			}

			w := doRequest(router, http.MethodGet, "/api/suggestions?status=In%20Progress", "alice", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(*gotFilter.Status).To(Equal(model.StatusInProgress))
			resp := decode[[]map[string]any](w)
			Expect(resp).To(HaveLen(1))
			Expect(resp[0]["isOwner"]).To(BeTrue())
			Expect(resp[0]["hasVoted"]).To(BeFalse())
			Expect(resp[0]["authorId"]).To(Equal("alice"))
			Expect(resp[0]["comments"]).To(BeEmpty())
		})

		It("never exposes the author id of anonymous suggestions and comments", func() {
			sg := sampleSuggestion("1")
			sg.IsAnonymous = true
			sg.Author = "Anonymous"
			sg.Comments = []model.Comment{{ID: "c1", Text: "hi", Author: "Anonymous", AuthorID: strPtr("bob"), IsAnonymous: true}}
			svc.listFn = func(context.Context, model.Principal, service.ListFilter) ([]model.Suggestion, error) {
				return []model.Suggestion{*sg}, nil
			}

			w := doRequest(router, http.MethodGet, "/api/suggestions", "alice", nil)

			resp := decode[[]map[string]any](w)
			Expect(resp[0]).To(HaveKeyWithValue("authorId", BeNil()))
			Expect(resp[0]["isOwner"]).To(BeTrue())
			comment := resp[0]["comments"].([]any)[0].(map[string]any)
			Expect(comment).To(HaveKeyWithValue("authorId", BeNil()))
			Expect(comment["isOwner"]).To(BeFalse())
		})
	})

	Describe("Create", func() {
		It("returns 201 with the created suggestion", func() {
			var got service.CreateSuggestionInput
			svc.createFn = func(_ context.Context, p model.Principal, in service.CreateSuggestionInput) (*model.Suggestion, error) {
				got = in
				Expect(p.UserID).To(Equal("alice"))
				return sampleSuggestion("42"), nil
			}

			w := doRequest(router, http.MethodPost, "/api/suggestions", "alice", map[string]any{
				"title":       "Bike racks",
				"description": "Covered bike racks",
				"isAnonymous": true,
				"departments": []string{"Facilities"},
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(got.Title).To(Equal("Bike racks"))
			Expect(got.IsAnonymous).To(BeTrue())
			Expect(got.Departments).To(Equal([]string{"Facilities"}))
			Expect(decode[map[string]any](w)["id"]).To(Equal("42"))
		})

		It("returns 400 for a malformed body", func() {
			w := doRequest(router, http.MethodPost, "/api/suggestions", "alice", `{"title":`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode[map[string]any](w)["code"]).To(Equal("invalid_input"))
		})

		It("returns 400 with the validation message from the service", func() {
			svc.createFn = func(context.Context, model.Principal, service.CreateSuggestionInput) (*model.Suggestion, error) {
				return nil, fmt.Errorf("%w: title is required", service.ErrInvalidInput)
			}

			w := doRequest(router, http.MethodPost, "/api/suggestions", "alice", map[string]any{"title": ""})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode[map[string]any](w)["message"]).To(Equal("invalid input: title is required"))
		})
	})

	Describe("error mapping", func() {
		DescribeTable("maps service errors to status codes",
			func(err error, status int, code string) {
				svc.updateFn = func(context.Context, model.Principal, string, service.UpdateSuggestionInput) (*model.Suggestion, error) {
					return nil, err
				}

				w := doRequest(router, http.MethodPut, "/api/suggestions/1", "alice", map[string]any{"title": "x"})

				Expect(w.Code).To(Equal(status))
				Expect(decode[map[string]any](w)["code"]).To(Equal(code))
			},
			Entry("forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden"),
			Entry("locked", service.ErrSuggestionLocked, http.StatusForbidden, "forbidden"),
			Entry("not found", service.ErrSuggestionNotFound, http.StatusNotFound, "not_found"),
			Entry("invalid", service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"),
			Entry("conflict", service.ErrConflict, http.StatusConflict, "conflict"),
			Entry("upstream", errors.New("arangodb unreachable"), http.StatusInternalServerError, "upstream_failure"),
		)

		It("hides the raw cause of upstream failures behind a generic message", func() {
			svc.getFn = func(context.Context, model.Principal, string) (*model.Suggestion, error) {
				return nil, errors.New("arangodb unreachable")
			}

			w := doRequest(router, http.MethodGet, "/api/suggestions/1", "alice", nil)

			resp := decode[map[string]any](w)
			Expect(resp["message"]).NotTo(ContainSubstring("arangodb"))
			Expect(resp["error"]).To(Equal("arangodb unreachable"))
		})

		It("omits the raw cause in production", func() {
			router = newSuggestionRouter(svc, searcher, true)
			svc.getFn = func(context.Context, model.Principal, string) (*model.Suggestion, error) {
				return nil, errors.New("arangodb unreachable")
			}

			w := doRequest(router, http.MethodGet, "/api/suggestions/1", "alice", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode[map[string]any](w)).NotTo(HaveKey("error"))
		})
	})

	Describe("Update", func() {
		It("forwards only the fields present in the body", func() {
			var got service.UpdateSuggestionInput
			svc.updateFn = func(_ context.Context, _ model.Principal, id string, in service.UpdateSuggestionInput) (*model.Suggestion, error) {
				Expect(id).To(Equal("7"))
				got = in
				return sampleSuggestion(id), nil
			}

			w := doRequest(router, http.MethodPut, "/api/suggestions/7", "admin", map[string]any{
				"status":      "Implemented",
				"effortScore": 2,
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(*got.Status).To(Equal(model.StatusImplemented))
			Expect(*got.EffortScore).To(Equal(2))
			Expect(got.Title).To(BeNil())
			Expect(got.ImpactScore).To(BeNil())
			Expect(got.Departments).To(BeNil())
		})
	})

	Describe("Delete", func() {
		It("returns 204 on success", func() {
			w := doRequest(router, http.MethodDelete, "/api/suggestions/7", "alice", nil)
			Expect(w.Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("Vote", func() {
		It("toggles the vote for the caller", func() {
			svc.toggleVoteFn = func(_ context.Context, p model.Principal, id string) (*model.Suggestion, error) {
				sg := sampleSuggestion(id)
				sg.Voters = append(sg.Voters, p.UserID)
				sg.Votes = 2
				return sg, nil
			}

			w := doRequest(router, http.MethodPost, "/api/suggestions/7/vote", "carol", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode[map[string]any](w)
			Expect(resp["votes"]).To(BeNumerically("==", 2))
			Expect(resp["hasVoted"]).To(BeTrue())
		})
	})

	Describe("Lock and Pin", func() {
		It("requires the flag in the body", func() {
			w := doRequest(router, http.MethodPut, "/api/suggestions/7/lock", "admin", map[string]any{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("passes false through rather than treating it as missing", func() {
			var got *bool
			svc.setPinnedFn = func(_ context.Context, _ model.Principal, id string, pinned bool) (*model.Suggestion, error) {
				got = &pinned
				return sampleSuggestion(id), nil
			}

			w := doRequest(router, http.MethodPut, "/api/suggestions/7/pin", "admin", map[string]any{"isPinned": false})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).NotTo(BeNil())
			Expect(*got).To(BeFalse())
		})

		It("passes the lock flag", func() {
			svc.setLockedFn = func(_ context.Context, _ model.Principal, id string, locked bool) (*model.Suggestion, error) {
				Expect(locked).To(BeTrue())
				sg := sampleSuggestion(id)
				sg.IsLocked = locked
				return sg, nil
			}

			w := doRequest(router, http.MethodPut, "/api/suggestions/7/lock", "admin", map[string]any{"isLocked": true})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode[map[string]any](w)["isLocked"]).To(BeTrue())
		})
	})

	Describe("Search", func() {
		It("builds the query from the parameters", func() {
			var got search.Query
			searcher.searchFn = func(_ context.Context, q search.Query) ([]model.Suggestion, error) {
				got = q
				return []model.Suggestion{*sampleSuggestion("1")}, nil
			}

			w := doRequest(router, http.MethodGet, "/api/suggestions/search?q=bike&limit=5&status=New", "alice", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got.Text).To(Equal("bike"))
			Expect(got.Limit).To(Equal(5))
			Expect(*got.Status).To(Equal(model.StatusNew))
			Expect(decode[[]map[string]any](w)).To(HaveLen(1))
		})

		It("rejects a non-numeric limit", func() {
			w := doRequest(router, http.MethodGet, "/api/suggestions/search?q=bike&limit=lots", "alice", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
