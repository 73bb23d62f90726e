package service

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/lshigami/Margay/internal/apperr"
	"github.com/lshigami/Margay/internal/model"
)

// In-memory fakes for repository, storage and LLM interfaces. The session
// fake mirrors the compare-and-swap semantics of the real repository so the
// concurrency properties can be exercised without a database.

type fakeResumeRepo struct {
	mu       sync.Mutex
	resumes  map[uint]*model.Resume
	analyses map[uint][]*model.ResumeAnalysis
	nextID   uint
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{
		resumes:  make(map[uint]*model.Resume),
		analyses: make(map[uint][]*model.ResumeAnalysis),
	}
}

func (r *fakeResumeRepo) Create(resume *model.Resume) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the unique index on the fingerprint column.
	for _, existing := range r.resumes {
		if existing.Fingerprint == resume.Fingerprint {
			return fmt.Errorf("duplicate fingerprint %s", resume.Fingerprint)
		}
	}
	r.nextID++
	resume.ID = r.nextID
	clone := *resume
	r.resumes[resume.ID] = &clone
	return nil
}

func (r *fakeResumeRepo) FindByID(id uint) (*model.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *resume
	return &clone, nil
}

func (r *fakeResumeRepo) FindByFingerprint(fingerprint string) (*model.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resume := range r.resumes {
		if resume.Fingerprint == fingerprint {
			clone := *resume
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeResumeRepo) LatestAnalysis(resumeID uint) (*model.ResumeAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.analyses[resumeID]
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *list[len(list)-1]
	return &clone, nil
}

func (r *fakeResumeRepo) CreateAnalysis(analysis *model.ResumeAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *analysis
	r.analyses[analysis.ResumeID] = append(r.analyses[analysis.ResumeID], &clone)
	return nil
}

func (r *fakeResumeRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resumes, id)
	delete(r.analyses, id)
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uint]*model.InterviewSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uint]*model.InterviewSession)}
}

func cloneSession(s *model.InterviewSession) *model.InterviewSession {
	clone := *s
	clone.Questions = make([]model.InterviewQuestion, len(s.Questions))
	for i, q := range s.Questions {
		qc := q
		if q.UserAnswer != nil {
			answer := *q.UserAnswer
			qc.UserAnswer = &answer
		}
		if q.Score != nil {
			score := *q.Score
			qc.Score = &score
		}
		if q.Feedback != nil {
			feedback := *q.Feedback
			qc.Feedback = &feedback
		}
		clone.Questions[i] = qc
	}
	return &clone
}

func (r *fakeSessionRepo) CreateWithQuestions(session *model.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session.ID = r.nextID
	for i := range session.Questions {
		session.Questions[i].SessionID = session.ID
	}
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *fakeSessionRepo) FindByID(id uint) (*model.InterviewSession, error) {
	return r.FindByIDWithQuestions(id)
}

func (r *fakeSessionRepo) FindByIDWithQuestions(id uint) (*model.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSession(session), nil
}

func (r *fakeSessionRepo) FindActiveByResumeID(resumeID uint) (*model.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.ResumeID == resumeID && session.Status != model.SessionCompleted {
			return cloneSession(session), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) RecordAnswerAndAdvance(sessionID uint, fromIndex int, answer string, newStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if session.CurrentIndex != fromIndex || session.Status == model.SessionCompleted {
		return apperr.ErrIndexMismatch
	}
	question := &session.Questions[fromIndex]
	if question.UserAnswer != nil {
		return apperr.ErrIndexMismatch
	}
	recorded := answer
	question.UserAnswer = &recorded
	session.CurrentIndex = fromIndex + 1
	session.Status = newStatus
	return nil
}

func (r *fakeSessionRepo) UpdateQuestionGrade(sessionID uint, questionIndex int, score float64, feedback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	question := &session.Questions[questionIndex]
	question.Score = &score
	question.Feedback = &feedback
	return nil
}

func (r *fakeSessionRepo) CompleteEarly(sessionID uint, fromIndex int, feedback string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if session.Status == model.SessionCompleted {
		return apperr.ErrSessionCompleted
	}
	session.Status = model.SessionCompleted
	for i := range session.Questions {
		q := &session.Questions[i]
		if q.QuestionIndex >= fromIndex && q.Score == nil {
			zero := 0.0
			fb := feedback
			q.Score = &zero
			q.Feedback = &fb
		}
	}
	return nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[uint]*model.InterviewReport
	nextID  uint
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uint]*model.InterviewReport)}
}

func (r *fakeReportRepo) Create(report *model.InterviewReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reports[report.SessionID]; exists {
		return fmt.Errorf("duplicate report for session %d", report.SessionID)
	}
	r.nextID++
	report.ID = r.nextID
	clone := *report
	r.reports[report.SessionID] = &clone
	return nil
}

func (r *fakeReportRepo) FindBySessionID(sessionID uint) (*model.InterviewReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *report
	return &clone, nil
}

type fakeLLM struct {
	mu sync.Mutex

	analyzeCalls   int
	generateCalls  int
	gradeCalls     int
	synthesisCalls int
	referenceCalls int

	analyzeErr   error
	generateErr  error
	gradeErr     error
	synthesisErr error
	referenceErr error

	generateShortfall int
	gradeScore        float64
	gradeDelay        func()
	synthesisDelay    func()
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{gradeScore: 80}
}

func (f *fakeLLM) AnalyzeResume(ctx context.Context, resumeText string) (*ResumeAnalysisResult, error) {
	f.mu.Lock()
	f.analyzeCalls++
	err := f.analyzeErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ResumeAnalysisResult{
		OverallScore: 75,
		Summary:      "Solid mid-level backend profile.",
		Strengths:    []string{"Go", "Postgres"},
		Weaknesses:   []string{"No distributed systems work"},
		Sections:     map[string]string{"experience": "good"},
	}, nil
}

func (f *fakeLLM) GenerateQuestions(ctx context.Context, resumeText string, count int) ([]GeneratedQuestion, error) {
	f.mu.Lock()
	f.generateCalls++
	err := f.generateErr
	shortfall := f.generateShortfall
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	n := count - shortfall
	categories := []string{"technical", "project", "behavioral"}
	questions := make([]GeneratedQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, GeneratedQuestion{
			Text:     fmt.Sprintf("Question %d?", i),
			Category: categories[i%len(categories)],
		})
	}
	return questions, nil
}

func (f *fakeLLM) GradeAnswer(ctx context.Context, questionText, answerText string) (*AnswerGrade, error) {
	f.mu.Lock()
	f.gradeCalls++
	err := f.gradeErr
	score := f.gradeScore
	delay := f.gradeDelay
	f.mu.Unlock()
	if delay != nil {
		delay()
	}
	if err != nil {
		return nil, err
	}
	return &AnswerGrade{Score: score, Feedback: "Good answer."}, nil
}

func (f *fakeLLM) SynthesizeReport(ctx context.Context, tuples []GradedTuple) (*ReportSynthesis, error) {
	f.mu.Lock()
	f.synthesisCalls++
	err := f.synthesisErr
	delay := f.synthesisDelay
	f.mu.Unlock()
	if delay != nil {
		delay()
	}
	if err != nil {
		return nil, err
	}
	return &ReportSynthesis{
		OverallFeedback: "Consistent performance across the interview.",
		Strengths:       []string{"clear communication"},
		Improvements:    []string{"go deeper on tradeoffs"},
	}, nil
}

func (f *fakeLLM) ReferenceAnswer(ctx context.Context, questionText string) (*ReferenceAnswer, error) {
	f.mu.Lock()
	f.referenceCalls++
	err := f.referenceErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ReferenceAnswer{
		Text:      "A strong candidate would cover the core concept end to end.",
		KeyPoints: []string{"definition", "tradeoffs"},
	}, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	putCalls    int
	deleteCalls int
	putErr      error
	deleteErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) URL(ctx context.Context, key string) (string, error) {
	return "https://storage.local/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func testRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, BaseDelay: 0}
}
