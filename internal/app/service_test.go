package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/jury/internal/adapters/backend"
	"github.com/okian/jury/internal/adapters/repository"
	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/evaluation"
	"github.com/okian/jury/internal/domain/inflight"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(fb *fakeBackend, opts ...service.Option) (*service.Service, repository.Store) {
	store := repository.NewMemoryStore()
	opts = append([]service.Option{
		service.WithBackend(fb),
		service.WithStore(store),
		service.WithClock(func() time.Time { return at }),
		service.WithEngine(evaluation.New(evaluation.WithClock(func() time.Time { return at }))),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc, store
}

func key(app string) model.DraftKey {
	return model.DraftKey{EventID: "ev-1", JudgeID: "judge-1", ApplicationID: app}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a backend", t, func() {
		svc := service.New()

		Convey("Then Start fails", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrBackendNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc, _ := newService(newFakeBackend())
		defer svc.Stop()

		Convey("Then stats report it", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["drafts"], ShouldEqual, 0)
			So(stats["archiveEnabled"], ShouldBeFalse)
		})

		Convey("Then starting twice is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})
	})
}

func TestService_Criteria(t *testing.T) {
	Convey("Given a service with a criteria cache", t, func() {
		fb := newFakeBackend()
		svc, _ := newService(fb, service.WithCriteriaTTL(time.Minute))
		ctx := context.Background()

		Convey("When criteria are read twice", func() {
			first, err := svc.Criteria(ctx, "ev-1")
			So(err, ShouldBeNil)
			_, err = svc.Criteria(ctx, "ev-1")
			So(err, ShouldBeNil)

			Convey("Then the backend is called once", func() {
				So(first, ShouldHaveLength, 2)
				So(fb.criteriaCalls, ShouldEqual, 1)
			})

			Convey("And invalidation forces a refetch", func() {
				svc.InvalidateCriteria("ev-1")
				_, _ = svc.Criteria(ctx, "ev-1")
				So(fb.criteriaCalls, ShouldEqual, 2)
			})
		})

		Convey("When the backend serves invalid criteria", func() {
			fb.criteria["ev-bad"] = []model.Criterion{{Name: "A", Weight: 1}, {Name: "A", Weight: 2}}
			_, err := svc.Criteria(ctx, "ev-bad")

			Convey("Then they are rejected", func() {
				So(errors.Is(err, evaluation.ErrInvalidCriterion), ShouldBeTrue)
			})
		})

		Convey("When the event is unknown", func() {
			_, err := svc.Criteria(ctx, "ev-404")

			Convey("Then the backend not-found error surfaces", func() {
				So(errors.Is(err, backend.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Scoring(t *testing.T) {
	Convey("Given an unreviewed application", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		svc, store := newService(fb)
		ctx := context.Background()

		Convey("Then it starts unscored", func() {
			v, err := svc.Evaluation(ctx, key("a1"))
			So(err, ShouldBeNil)
			So(v.State, ShouldEqual, model.StateUnscored)
			So(v.HasDraft, ShouldBeFalse)
			So(v.Missing, ShouldResemble, []string{"Innovation", "Execution"})
		})

		Convey("When Innovation is scored 4", func() {
			v, err := svc.SetScore(ctx, key("a1"), "Innovation", 4)

			Convey("Then the application is partially scored with a 2.00 preview", func() {
				So(err, ShouldBeNil)
				So(v.State, ShouldEqual, model.StatePartiallyScored)
				So(v.CurrentScore, ShouldEqual, 2.00)
				So(v.Ready, ShouldBeFalse)
				So(v.Missing, ShouldResemble, []string{"Execution"})
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And submitting is refused without a backend call", func() {
				_, err := svc.Submit(ctx, key("a1"))
				So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
				var ve *service.ValidationError
				So(errors.As(err, &ve), ShouldBeTrue)
				So(ve.Missing, ShouldResemble, []string{"Execution"})
				So(fb.submissions(), ShouldEqual, 0)
			})

			Convey("And Execution scored 2 makes it ready", func() {
				v, err := svc.SetScore(ctx, key("a1"), "Execution", 2)
				So(err, ShouldBeNil)
				So(v.State, ShouldEqual, model.StateReadyToSubmit)
				So(v.CurrentScore, ShouldEqual, 3.00)

				Convey("And submitting hands the payload to the backend", func() {
					_, _ = svc.SetComment(ctx, key("a1"), "solid")
					p, err := svc.Submit(ctx, key("a1"))
					So(err, ShouldBeNil)
					So(p.FinalScore, ShouldEqual, 3.00)
					So(p.JudgeID, ShouldEqual, "judge-1")
					So(p.JudgeComment, ShouldEqual, "solid")
					So(p.ReviewDate, ShouldEqual, at)
					So(fb.submissions(), ShouldEqual, 1)

					Convey("Then the draft is gone and the application is reviewed", func() {
						So(store.Count(ctx), ShouldEqual, 0)
						v, err := svc.Evaluation(ctx, key("a1"))
						So(err, ShouldBeNil)
						So(v.State, ShouldEqual, model.StateReviewed)
						So(*v.FinalScore, ShouldEqual, 3.00)
					})
				})
			})
		})

		Convey("When a score is out of range", func() {
			_, err := svc.SetScore(ctx, key("a1"), "Innovation", 6)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, evaluation.ErrScoreOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When the criterion is unknown", func() {
			_, err := svc.SetScore(ctx, key("a1"), "Charisma", 3)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, evaluation.ErrUnknownCriterion), ShouldBeTrue)
			})
		})

		Convey("When the key is incomplete", func() {
			_, err := svc.SetScore(ctx, model.DraftKey{EventID: "ev-1"}, "Innovation", 3)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidKey), ShouldBeTrue)
			})
		})

		Convey("When the application does not exist", func() {
			_, err := svc.Evaluation(ctx, key("nope"))

			Convey("Then the not-found error surfaces", func() {
				So(errors.Is(err, backend.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_SubmitFailure(t *testing.T) {
	Convey("Given a ready application and a failing backend", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		svc, store := newService(fb)
		ctx := context.Background()
		_, _ = svc.SetScore(ctx, key("a1"), "Innovation", 4)
		_, _ = svc.SetScore(ctx, key("a1"), "Execution", 2)
		fb.submitErr = &backend.StatusError{Op: backend.OpSubmitEvaluation, StatusCode: 500}

		Convey("When submitting", func() {
			_, err := svc.Submit(ctx, key("a1"))

			Convey("Then the failure is reported and the draft kept", func() {
				So(errors.Is(err, service.ErrSubmissionFailed), ShouldBeTrue)
				So(errors.Is(err, backend.ErrBackend), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 1)

				v, err := svc.Evaluation(ctx, key("a1"))
				So(err, ShouldBeNil)
				So(v.State, ShouldEqual, model.StateReadyToSubmit)
				So(v.Scores, ShouldResemble, model.Scores{"Innovation": 4, "Execution": 2})
			})

			Convey("And a retry after recovery succeeds", func() {
				fb.submitErr = nil
				p, err := svc.Submit(ctx, key("a1"))
				So(err, ShouldBeNil)
				So(p.FinalScore, ShouldEqual, 3.00)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a reviewed application without a draft and a failing backend", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1", FinalScore: ptr(3), PerCriterionScores: model.Scores{"Innovation": 4, "Execution": 2}})
		svc, store := newService(fb)
		ctx := context.Background()
		fb.submitErr = errBackendDown

		Convey("When resubmitting", func() {
			_, err := svc.Submit(ctx, key("a1"))

			Convey("Then a draft is created so the judge can retry", func() {
				So(errors.Is(err, service.ErrSubmissionFailed), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestService_SubmitInFlight(t *testing.T) {
	Convey("Given a submission blocked at the backend", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a2"})
		svc, _ := newService(fb)
		ctx := context.Background()
		for _, id := range []string{"a1", "a2"} {
			_, _ = svc.SetScore(ctx, key(id), "Innovation", 5)
			_, _ = svc.SetScore(ctx, key(id), "Execution", 5)
		}
		fb.block = make(chan struct{})

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = svc.Submit(ctx, key("a1"))
		}()
		waitFor(func() bool { return svc.GetStats()["inflightSubmits"] == int64(1) })

		Convey("When the same application is submitted again", func() {
			_, err := svc.Submit(ctx, key("a1"))

			Convey("Then it is refused as in flight", func() {
				So(errors.Is(err, service.ErrSubmissionInFlight), ShouldBeTrue)
			})
		})

		Convey("When another application is edited meanwhile", func() {
			v, err := svc.SetScore(ctx, key("a2"), "Execution", 3)

			Convey("Then it is unaffected", func() {
				So(err, ShouldBeNil)
				So(v.Scores["Execution"], ShouldEqual, 3)
			})
		})

		close(fb.block)
		wg.Wait()
		So(firstErr, ShouldBeNil)
	})
}

func TestService_SubmitLimit(t *testing.T) {
	Convey("Given a tracker that holds one submission", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a2"})
		svc, _ := newService(fb, service.WithTracker(inflight.NewTracker(inflight.WithMaxSize(1))))
		ctx := context.Background()
		for _, id := range []string{"a1", "a2"} {
			_, _ = svc.SetScore(ctx, key(id), "Innovation", 5)
			_, _ = svc.SetScore(ctx, key(id), "Execution", 5)
		}
		fb.block = make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Submit(ctx, key("a1"))
		}()
		waitFor(func() bool { return svc.GetStats()["inflightSubmits"] == int64(1) })

		Convey("When a different application is submitted", func() {
			_, err := svc.Submit(ctx, key("a2"))

			Convey("Then it is refused as over the limit, not as in flight", func() {
				So(errors.Is(err, service.ErrTooManySubmissions), ShouldBeTrue)
				So(errors.Is(err, service.ErrSubmissionInFlight), ShouldBeFalse)
			})
		})

		close(fb.block)
		wg.Wait()
		So(fb.submissions(), ShouldEqual, 1)
	})
}

func TestService_ConcurrentDrafts(t *testing.T) {
	Convey("Given an event with many criteria", t, func() {
		fb := newFakeBackend()
		names := []string{"C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8"}
		var criteria []model.Criterion
		for _, n := range names {
			criteria = append(criteria, model.Criterion{Name: n, Weight: 1})
		}
		fb.criteria["ev-2"] = criteria
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		svc, store := newService(fb)
		ctx := context.Background()
		k := model.DraftKey{EventID: "ev-2", JudgeID: "judge-1", ApplicationID: "a1"}

		Convey("When every criterion and the comment are written at once", func() {
			var wg sync.WaitGroup
			for i, n := range names {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = svc.SetScore(ctx, k, n, i%5+1)
				}()
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = svc.SetComment(ctx, k, "parallel")
			}()
			wg.Wait()

			Convey("Then no write is lost", func() {
				d, err := store.Get(ctx, k)
				So(err, ShouldBeNil)
				So(d.Scores, ShouldHaveLength, len(names))
				for i, n := range names {
					So(d.Scores[n], ShouldEqual, i%5+1)
				}
				So(d.Comment, ShouldEqual, "parallel")
				So(svc.GetStats()["lockedDrafts"], ShouldEqual, 0)
			})
		})
	})

	Convey("Given a submission waiting on the backend", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		svc, store := newService(fb)
		ctx := context.Background()
		_, _ = svc.SetScore(ctx, key("a1"), "Innovation", 5)
		_, _ = svc.SetScore(ctx, key("a1"), "Execution", 5)
		fb.entered = make(chan struct{}, 1)
		fb.block = make(chan struct{})

		var wg sync.WaitGroup
		var submitErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, submitErr = svc.Submit(ctx, key("a1"))
		}()
		<-fb.entered

		Convey("When the judge changes a score meanwhile", func() {
			_, err := svc.SetScore(ctx, key("a1"), "Execution", 2)
			So(err, ShouldBeNil)
			close(fb.block)
			wg.Wait()

			Convey("Then the submission goes through and the newer edit is kept", func() {
				So(submitErr, ShouldBeNil)
				So(fb.submissions(), ShouldEqual, 1)
				So(fb.submitted[0].EvaluationScores["Execution"], ShouldEqual, 5)

				d, err := store.Get(ctx, key("a1"))
				So(err, ShouldBeNil)
				So(d.Scores["Execution"], ShouldEqual, 2)

				v, _ := svc.Evaluation(ctx, key("a1"))
				So(v.Editing, ShouldBeTrue)
				So(v.State, ShouldEqual, model.StateReadyToSubmit)
			})
		})
	})
}

func TestService_Assignment(t *testing.T) {
	Convey("Given an application assigned to another judge", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a2"})
		fb.assign("a1", "judge-1")
		svc, store := newService(fb)
		ctx := context.Background()
		other := model.DraftKey{EventID: "ev-1", JudgeID: "judge-2", ApplicationID: "a1"}

		Convey("Then it is missing from that judge's listing", func() {
			views, err := svc.Applications(ctx, "ev-1", "judge-2", service.Filter{})
			So(err, ShouldBeNil)
			So(views, ShouldHaveLength, 1)
			So(views[0].ApplicationID, ShouldEqual, "a2")
		})

		Convey("Then the other judge can neither read nor draft it", func() {
			_, err := svc.Evaluation(ctx, other)
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
			_, err = svc.SetScore(ctx, other, "Innovation", 5)
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
			_, err = svc.SetComment(ctx, other, "mine now")
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
			_, err = svc.Edit(ctx, other)
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 0)
		})

		Convey("Then the other judge cannot submit it", func() {
			_, err := svc.Submit(ctx, other)
			So(errors.Is(err, service.ErrNotAssigned), ShouldBeTrue)
			So(fb.submissions(), ShouldEqual, 0)
		})

		Convey("Then the assigned judge still can", func() {
			_, err := svc.SetScore(ctx, key("a1"), "Innovation", 5)
			So(err, ShouldBeNil)
			_, err = svc.SetScore(ctx, key("a1"), "Execution", 4)
			So(err, ShouldBeNil)
			_, err = svc.Submit(ctx, key("a1"))
			So(err, ShouldBeNil)
			So(fb.submissions(), ShouldEqual, 1)
		})
	})
}

func TestService_EditMode(t *testing.T) {
	Convey("Given a reviewed application", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1", FinalScore: ptr(3), JudgeComment: "ok", PerCriterionScores: model.Scores{"Innovation": 4, "Execution": 2}})
		svc, store := newService(fb)
		ctx := context.Background()

		Convey("Then it shows as reviewed", func() {
			v, _ := svc.Evaluation(ctx, key("a1"))
			So(v.State, ShouldEqual, model.StateReviewed)
			So(v.Editing, ShouldBeFalse)
		})

		Convey("When the judge enters edit mode", func() {
			v, err := svc.Edit(ctx, key("a1"))

			Convey("Then a draft is seeded from the persisted scores", func() {
				So(err, ShouldBeNil)
				So(v.Editing, ShouldBeTrue)
				So(v.State, ShouldEqual, model.StateReadyToSubmit)
				So(v.Scores, ShouldResemble, model.Scores{"Innovation": 4, "Execution": 2})
				So(v.Comment, ShouldEqual, "ok")
				So(*v.FinalScore, ShouldEqual, 3)
			})

			Convey("And discarding returns to the persisted state", func() {
				So(svc.Discard(ctx, key("a1")), ShouldBeNil)
				v, _ := svc.Evaluation(ctx, key("a1"))
				So(v.State, ShouldEqual, model.StateReviewed)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a score is changed and resubmitted", func() {
			_, err := svc.SetScore(ctx, key("a1"), "Execution", 4)
			So(err, ShouldBeNil)
			p, err := svc.Submit(ctx, key("a1"))

			Convey("Then the final score is recomputed", func() {
				So(err, ShouldBeNil)
				So(p.FinalScore, ShouldEqual, 4.00)
				So(p.JudgeComment, ShouldEqual, "ok")
			})
		})
	})
}

func TestService_ApplicationsAndProgress(t *testing.T) {
	Convey("Given five applications with three reviewed", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "app-e"})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "app-a", FinalScore: ptr(3), PerCriterionScores: model.Scores{"Innovation": 4, "Execution": 2}})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "app-c", FinalScore: ptr(5), PerCriterionScores: model.Scores{"Innovation": 5, "Execution": 5}, JudgeComment: "Outstanding"})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "app-b", FinalScore: ptr(1), PerCriterionScores: model.Scores{"Innovation": 1, "Execution": 1}})
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "app-d"})
		svc, _ := newService(fb)
		ctx := context.Background()
		_, _ = svc.SetScore(ctx, key("app-d"), "Innovation", 2)

		Convey("Then progress counts 5/2/3 at 60%", func() {
			p, err := svc.Progress(ctx, "ev-1", "judge-1")
			So(err, ShouldBeNil)
			So(p, ShouldResemble, model.Progress{Total: 5, Pending: 2, Reviewed: 3, ReviewProgressPercent: 60})
			So(svc.GetStats()["trackedJudges"], ShouldEqual, 1)
		})

		Convey("Then the full listing is ordered by id with drafts applied", func() {
			views, err := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{})
			So(err, ShouldBeNil)
			So(views, ShouldHaveLength, 5)
			So(views[0].ApplicationID, ShouldEqual, "app-a")
			So(views[3].ApplicationID, ShouldEqual, "app-d")
			So(views[3].State, ShouldEqual, model.StatePartiallyScored)
			So(views[4].State, ShouldEqual, model.StateUnscored)
		})

		Convey("Then filters narrow the listing", func() {
			pending, _ := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Status: service.FilterPending})
			So(pending, ShouldHaveLength, 2)

			reviewed, _ := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Status: service.FilterReviewed, Sort: service.SortByScore})
			So(reviewed, ShouldHaveLength, 3)
			So(reviewed[0].ApplicationID, ShouldEqual, "app-c")
			So(reviewed[2].ApplicationID, ShouldEqual, "app-b")

			byState, err := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Status: string(model.StateReviewed)})
			So(err, ShouldBeNil)
			So(byState, ShouldHaveLength, 3)
			for _, v := range byState {
				So(v.FinalScore, ShouldNotBeNil)
			}

			partial, _ := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Status: "partially_scored"})
			So(partial, ShouldHaveLength, 1)

			found, _ := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Query: "outstanding"})
			So(found, ShouldHaveLength, 1)
			So(found[0].ApplicationID, ShouldEqual, "app-c")
		})

		Convey("Then unknown filters are rejected", func() {
			_, err := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Sort: "random"})
			So(errors.Is(err, service.ErrInvalidFilter), ShouldBeTrue)
		})

		Convey("Then tracked pairs refresh without error", func() {
			_, _ = svc.Progress(ctx, "ev-1", "judge-1")
			So(svc.RefreshProgress(ctx), ShouldBeNil)
		})

		Convey("Then the export ranks reviewed applications", func() {
			data, err := svc.Export(ctx, "ev-1", "judge-1")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(lines, ShouldHaveLength, 6)
			So(lines[0], ShouldEqual, "application_id,status,final_score,Innovation,Execution,judge_comment")
			So(lines[1], ShouldStartWith, "app-c,reviewed,5.00")
			So(lines[4], ShouldEqual, "app-d,partially_scored,,2,,")
		})

		Convey("Then a reviewed application being edited exports its submitted scores", func() {
			_, err := svc.SetScore(ctx, key("app-a"), "Innovation", 1)
			So(err, ShouldBeNil)
			_, err = svc.SetComment(ctx, key("app-a"), "rethinking")
			So(err, ShouldBeNil)

			data, err := svc.Export(ctx, "ev-1", "judge-1")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(lines[2], ShouldEqual, "app-a,reviewed,3.00,4,2,")

			views, _ := svc.Applications(ctx, "ev-1", "judge-1", service.Filter{Query: "rethinking"})
			So(views, ShouldHaveLength, 1)
			So(views[0].Editing, ShouldBeTrue)
		})

		Convey("Then archiving without storage is refused", func() {
			_, err := svc.Archive(ctx, "ev-1", "judge-1")
			So(errors.Is(err, service.ErrArchiveNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given a service with an archiver", t, func() {
		fb := newFakeBackend()
		fb.addApp(model.ApplicationEvaluationState{ApplicationID: "a1"})
		arch := &fakeArchiver{}
		svc, _ := newService(fb, service.WithExporter(arch))

		Convey("Then archive uploads the CSV", func() {
			k, err := svc.Archive(context.Background(), "ev-1", "judge-1")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, "exports/ev-1/judge-1.csv")
			So(string(arch.data), ShouldStartWith, "application_id,")
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given a stateless preview", t, func() {
		svc := service.New()
		criteria := []model.Criterion{{Name: "A", Weight: 1}}

		Convey("Then a full score is ready", func() {
			r, err := svc.Preview(criteria, model.Scores{"A": 5})
			So(err, ShouldBeNil)
			So(r.FinalScore, ShouldEqual, 5.00)
			So(r.Ready, ShouldBeTrue)
			So(r.Missing, ShouldBeEmpty)
			So(r.State, ShouldEqual, model.StateReadyToSubmit)
		})

		Convey("Then out-of-range scores are rejected", func() {
			_, err := svc.Preview(criteria, model.Scores{"A": 9})
			So(errors.Is(err, evaluation.ErrScoreOutOfRange), ShouldBeTrue)
		})
	})
}

func waitFor(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}
