package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/model"
)

func newSessionFixture(t *testing.T) (InterviewSessionService, *fakeResumeRepo, *fakeSessionRepo, *fakeLLM) {
	t.Helper()
	resumeRepo := newFakeResumeRepo()
	sessionRepo := newFakeSessionRepo()
	llm := newFakeLLM()
	if err := resumeRepo.Create(&model.Resume{Fingerprint: "fp", FileName: "resume.txt", ResumeText: "Jane Doe, Go engineer"}); err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	svc := NewInterviewSessionService(resumeRepo, sessionRepo, llm, testRetryPolicy())
	return svc, resumeRepo, sessionRepo, llm
}

func TestCreateSessionFresh(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Resumed {
		t.Errorf("fresh session must not be marked resumed")
	}
	if session.QuestionCount != 5 || session.CurrentIndex != 0 {
		t.Errorf("unexpected session shape: %+v", session)
	}
	if session.Status != model.SessionNotStarted {
		t.Errorf("expected not_started status, got %s", session.Status)
	}
	if session.CurrentQuestion == nil || session.CurrentQuestion.QuestionIndex != 0 {
		t.Errorf("expected the first question to be issued")
	}
}

func TestCreateOrResumeReturnsExistingSession(t *testing.T) {
	svc, _, _, llm := newSessionFixture(t)

	first, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Resumed {
		t.Errorf("expected resumed=true for the second call")
	}
	if second.ID != first.ID {
		t.Errorf("expected the same session, got %d and %d", first.ID, second.ID)
	}
	if llm.generateCalls != 1 {
		t.Errorf("resumption must not regenerate questions, got %d calls", llm.generateCalls)
	}
}

func TestCreateOrResumeConcurrent(t *testing.T) {
	svc, _, _, llm := newSessionFixture(t)

	const racers = 8
	ids := make(chan uint, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := svc.CreateOrResume(context.Background(), 1, 3)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected all racers to land on one session, got %d distinct ids", len(seen))
	}
	if llm.generateCalls != 1 {
		t.Errorf("expected exactly one generation call, got %d", llm.generateCalls)
	}
}

func TestCreateSessionGenerationShortfall(t *testing.T) {
	svc, _, sessionRepo, llm := newSessionFixture(t)
	llm.generateShortfall = 2

	_, err := svc.CreateOrResume(context.Background(), 1, 5)
	if !errors.Is(err, apperr.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if _, err := sessionRepo.FindActiveByResumeID(1); err == nil {
		t.Errorf("no partial session may be persisted on generation failure")
	}
}

func TestCreateSessionUnknownResume(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	_, err := svc.CreateOrResume(context.Background(), 99, 3)
	if !errors.Is(err, apperr.ErrResumeNotFound) {
		t.Fatalf("expected ErrResumeNotFound, got %v", err)
	}
}

func TestSubmitAnswerAdvancesCursor(t *testing.T) {
	svc, _, sessionRepo, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.SubmitAnswer(context.Background(), session.ID, 0, "My answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Graded || result.Score == nil || *result.Score != 80 {
		t.Errorf("expected a graded answer with score 80, got %+v", result)
	}
	if !result.HasNextQuestion || result.NextQuestion == nil || result.NextQuestion.QuestionIndex != 1 {
		t.Errorf("expected the next question at index 1, got %+v", result.NextQuestion)
	}
	if result.SessionStatus != model.SessionInProgress {
		t.Errorf("expected in_progress, got %s", result.SessionStatus)
	}

	stored, err := sessionRepo.FindByIDWithQuestions(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.CurrentIndex != 1 {
		t.Errorf("expected cursor 1, got %d", stored.CurrentIndex)
	}
	if stored.Questions[0].UserAnswer == nil || *stored.Questions[0].UserAnswer != "My answer" {
		t.Errorf("answer was not recorded")
	}
}

func TestSubmitAnswerIndexMismatch(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.SubmitAnswer(context.Background(), session.ID, 2, "out of order")
	if !errors.Is(err, apperr.ErrIndexMismatch) {
		t.Fatalf("expected ErrIndexMismatch, got %v", err)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	_, err := svc.SubmitAnswer(context.Background(), 404, 0, "hello")
	if !errors.Is(err, apperr.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitAnswerCompletesOnExhaustion(t *testing.T) {
	svc, _, sessionRepo, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SubmitAnswer(context.Background(), session.ID, 0, "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, err := svc.SubmitAnswer(context.Background(), session.ID, 1, "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.HasNextQuestion || final.NextQuestion != nil {
		t.Errorf("expected no next question after the last submission")
	}
	if final.SessionStatus != model.SessionCompleted {
		t.Errorf("expected completed, got %s", final.SessionStatus)
	}

	stored, _ := sessionRepo.FindByIDWithQuestions(session.ID)
	if stored.Status != model.SessionCompleted {
		t.Errorf("session not marked completed in the store")
	}

	if _, err := svc.SubmitAnswer(context.Background(), session.ID, 2, "C"); !errors.Is(err, apperr.ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted after exhaustion, got %v", err)
	}
}

func TestSubmitAnswerGradingDeferred(t *testing.T) {
	svc, _, sessionRepo, llm := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	llm.gradeErr = errors.New("grading backend down")
	result, err := svc.SubmitAnswer(context.Background(), session.ID, 0, "My answer")
	if err != nil {
		t.Fatalf("submission must not fail when grading is deferred: %v", err)
	}
	if result.Graded {
		t.Errorf("expected graded=false on retry exhaustion")
	}

	stored, _ := sessionRepo.FindByIDWithQuestions(session.ID)
	if stored.Questions[0].UserAnswer == nil {
		t.Errorf("answer must survive a grading failure")
	}
	if stored.Questions[0].Score != nil {
		t.Errorf("score must stay unset for deferred grading")
	}
	if stored.CurrentIndex != 1 {
		t.Errorf("cursor must advance despite deferred grading, got %d", stored.CurrentIndex)
	}
}

func TestSubmitAnswerConcurrentSameIndex(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.SubmitAnswer(context.Background(), session.ID, 0, fmt.Sprintf("racer %d", n))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, mismatches := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperr.ErrIndexMismatch):
			mismatches++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || mismatches != 1 {
		t.Fatalf("expected exactly one success and one mismatch, got %d/%d", successes, mismatches)
	}
}

func TestCompleteEarlyZeroFills(t *testing.T) {
	svc, _, sessionRepo, _ := newSessionFixture(t)

	session, err := svc.CreateOrResume(context.Background(), 1, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.SubmitAnswer(context.Background(), session.ID, i, "answer"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := svc.CompleteEarly(context.Background(), session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := sessionRepo.FindByIDWithQuestions(session.ID)
	if stored.Status != model.SessionCompleted {
		t.Fatalf("expected completed status, got %s", stored.Status)
	}
	if stored.CurrentIndex != 3 {
		t.Errorf("cursor must not advance on early completion, got %d", stored.CurrentIndex)
	}
	for i := 3; i < 8; i++ {
		q := stored.Questions[i]
		if q.Score == nil || *q.Score != 0 {
			t.Errorf("question %d should be scored zero", i)
		}
		if q.Feedback == nil || *q.Feedback != NonResponseFeedback {
			t.Errorf("question %d should carry non-response feedback", i)
		}
	}

	if err := svc.CompleteEarly(context.Background(), session.ID); !errors.Is(err, apperr.ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted on repeat, got %v", err)
	}
}

func TestFindUnfinished(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	found, err := svc.FindUnfinished(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected no unfinished session, got %+v", found)
	}

	session, err := svc.CreateOrResume(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitAnswer(context.Background(), session.ID, 0, "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err = svc.FindUnfinished(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != session.ID {
		t.Fatalf("expected the active session, got %+v", found)
	}
	if !found.Resumed {
		t.Errorf("a session with progress should read as resumable")
	}
	if found.CurrentQuestion == nil || found.CurrentQuestion.QuestionIndex != 1 {
		t.Errorf("expected the cursor question to be issued, got %+v", found.CurrentQuestion)
	}
}
