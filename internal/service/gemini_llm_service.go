package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/Margay/config"
)

// MaxQuestionScore is the per-question grading scale.
const MaxQuestionScore = 100.0

type GeneratedQuestion struct {
	Text     string `json:"question"`
	Category string `json:"category"`
}

type ResumeAnalysisResult struct {
	OverallScore int               `json:"overall_score"`
	Summary      string            `json:"summary"`
	Strengths    []string          `json:"strengths"`
	Weaknesses   []string          `json:"weaknesses"`
	Sections     map[string]string `json:"sections"`
}

type AnswerGrade struct {
	Score    float64
	Feedback string
}

// GradedTuple carries one question/answer/score/feedback row into report
// synthesis.
type GradedTuple struct {
	QuestionIndex int     `json:"question_index"`
	Question      string  `json:"question"`
	Category      string  `json:"category"`
	Answer        string  `json:"answer"`
	Score         float64 `json:"score"`
	Feedback      string  `json:"feedback"`
}

type ReportSynthesis struct {
	OverallFeedback string   `json:"overall_feedback"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
}

type ReferenceAnswer struct {
	Text      string   `json:"answer"`
	KeyPoints []string `json:"key_points"`
}

// LLMService is the question-generation and grading capability consumed by the
// engine. Each call may fail transiently; call sites apply the retry policy.
type LLMService interface {
	AnalyzeResume(ctx context.Context, resumeText string) (*ResumeAnalysisResult, error)
	GenerateQuestions(ctx context.Context, resumeText string, count int) ([]GeneratedQuestion, error)
	GradeAnswer(ctx context.Context, questionText, answerText string) (*AnswerGrade, error)
	SynthesizeReport(ctx context.Context, tuples []GradedTuple) (*ReportSynthesis, error)
	ReferenceAnswer(ctx context.Context, questionText string) (*ReferenceAnswer, error)
}

type geminiLLMService struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

func NewGeminiLLMService(cfg *config.Config) (LLMService, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. LLM service will be non-functional.")
		return &geminiLLMService{cfg: cfg, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Gemini.Model)
	return &geminiLLMService{client: model, cfg: cfg}, nil
}

func (s *geminiLLMService) AnalyzeResume(ctx context.Context, resumeText string) (*ResumeAnalysisResult, error) {
	var b strings.Builder
	b.WriteString("You are a senior technical recruiter reviewing a candidate's resume.\n")
	b.WriteString("Analyze the resume below and respond with a single JSON object, no markdown, with exactly these keys:\n")
	b.WriteString(`{"overall_score": <integer 0-100>, "summary": "<2-3 sentence overview>", "strengths": ["..."], "weaknesses": ["..."], "sections": {"<section name>": "<assessment>"}}`)
	b.WriteString("\n\nResume:\n---\n")
	b.WriteString(resumeText)
	b.WriteString("\n---\n")

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var result ResumeAnalysisResult
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &result); err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse resume analysis from Gemini response")
		return nil, fmt.Errorf("could not parse resume analysis response: %w", err)
	}
	if result.OverallScore < 0 {
		result.OverallScore = 0
	}
	if result.OverallScore > 100 {
		result.OverallScore = 100
	}
	return &result, nil
}

func (s *geminiLLMService) GenerateQuestions(ctx context.Context, resumeText string, count int) ([]GeneratedQuestion, error) {
	var b strings.Builder
	b.WriteString("You are an experienced technical interviewer preparing a mock interview.\n")
	fmt.Fprintf(&b, "Based on the candidate's resume below, write exactly %d interview questions tailored to their experience.\n", count)
	b.WriteString("Mix technical depth questions, project deep-dives and behavioral questions.\n")
	b.WriteString("Respond with a single JSON array, no markdown, where each element is:\n")
	b.WriteString(`{"question": "<the question>", "category": "<one of: technical, project, behavioral, system_design, fundamentals>"}`)
	b.WriteString("\n\nResume:\n---\n")
	b.WriteString(resumeText)
	b.WriteString("\n---\n")

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var questions []GeneratedQuestion
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &questions); err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse generated questions from Gemini response")
		return nil, fmt.Errorf("could not parse question generation response: %w", err)
	}
	return questions, nil
}

func (s *geminiLLMService) GradeAnswer(ctx context.Context, questionText, answerText string) (*AnswerGrade, error) {
	var b strings.Builder
	b.WriteString("You are an experienced technical interviewer grading a candidate's answer in a mock interview.\n\n")
	b.WriteString("Interview Question:\n---\n")
	b.WriteString(questionText)
	b.WriteString("\n---\n\nCandidate's Answer:\n---\n")
	b.WriteString(answerText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, `Evaluate correctness, depth, structure and communication. Provide your evaluation in two parts:
1. Score: a numerical score from 0 to %.0f.
2. Feedback: concise, constructive feedback naming what was good and what was missing, with concrete suggestions.

Format your response strictly as:
Score: [Your Numerical Score Here]
Feedback:
[Your Feedback Here]
`, MaxQuestionScore)

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	scoreStr, feedback, parseErr := parseScoreAndFeedback(raw)
	if parseErr != nil {
		log.Warn().Err(parseErr).Str("rawResponse", raw).Msg("Failed to parse score and feedback from Gemini response")
		return nil, parseErr
	}
	score, scoreErr := strconv.ParseFloat(strings.TrimSpace(scoreStr), 64)
	if scoreErr != nil {
		return nil, fmt.Errorf("could not parse score value %q from AI response: %w", scoreStr, scoreErr)
	}
	return &AnswerGrade{Score: clampScore(score), Feedback: strings.TrimSpace(feedback)}, nil
}

func (s *geminiLLMService) SynthesizeReport(ctx context.Context, tuples []GradedTuple) (*ReportSynthesis, error) {
	payload, err := json.Marshal(tuples)
	if err != nil {
		return nil, fmt.Errorf("marshal graded tuples: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an experienced interview coach writing the final assessment of a mock interview.\n")
	b.WriteString("The JSON below lists every question with the candidate's answer, score (0-100) and per-question feedback.\n")
	b.WriteString("Respond with a single JSON object, no markdown, with exactly these keys:\n")
	b.WriteString(`{"overall_feedback": "<3-5 sentence narrative>", "strengths": ["..."], "improvements": ["..."]}`)
	b.WriteString("\n\nInterview transcript:\n")
	b.Write(payload)
	b.WriteString("\n")

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var synthesis ReportSynthesis
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &synthesis); err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse report synthesis from Gemini response")
		return nil, fmt.Errorf("could not parse report synthesis response: %w", err)
	}
	return &synthesis, nil
}

func (s *geminiLLMService) ReferenceAnswer(ctx context.Context, questionText string) (*ReferenceAnswer, error) {
	var b strings.Builder
	b.WriteString("You are an experienced technical interviewer.\n")
	b.WriteString("Write a model answer to the interview question below, the kind a strong candidate would give.\n")
	b.WriteString("Respond with a single JSON object, no markdown, with exactly these keys:\n")
	b.WriteString(`{"answer": "<the model answer>", "key_points": ["<point the answer must cover>", "..."]}`)
	b.WriteString("\n\nQuestion:\n---\n")
	b.WriteString(questionText)
	b.WriteString("\n---\n")

	raw, err := s.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var reference ReferenceAnswer
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &reference); err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse reference answer from Gemini response")
		return nil, fmt.Errorf("could not parse reference answer response: %w", err)
	}
	return &reference, nil
}

// generate sends a single text prompt and assembles the textual response.
func (s *geminiLLMService) generate(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error")
		return "", fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msg("Gemini returned no candidates or parts in response.")
		return "", fmt.Errorf("gemini returned no content")
	}

	fullResponseText := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullResponseText += string(txt)
		}
	}
	if fullResponseText == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return fullResponseText, nil
}

// stripJSONFences removes a surrounding ```json ... ``` block the model
// sometimes produces despite instructions.
func stripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func parseScoreAndFeedback(rawResponse string) (scoreStr string, feedbackStr string, err error) {
	scorePrefix := "Score:"
	feedbackPrefix := "Feedback:"

	scoreIndex := strings.Index(rawResponse, scorePrefix)
	feedbackIndex := strings.Index(rawResponse, feedbackPrefix)

	if scoreIndex == -1 {
		return "", rawResponse, fmt.Errorf("response does not contain 'Score:' prefix. Raw: %s", rawResponse)
	}

	endOfScoreLine := strings.Index(rawResponse[scoreIndex:], "\n")
	if endOfScoreLine == -1 {
		scoreStr = strings.TrimSpace(rawResponse[scoreIndex+len(scorePrefix):])
	} else {
		scoreStr = strings.TrimSpace(rawResponse[scoreIndex+len(scorePrefix) : scoreIndex+endOfScoreLine])
	}

	if feedbackIndex != -1 && feedbackIndex > scoreIndex {
		feedbackStr = strings.TrimSpace(rawResponse[feedbackIndex+len(feedbackPrefix):])
	} else if endOfScoreLine != -1 && len(rawResponse) > scoreIndex+endOfScoreLine+1 {
		feedbackStr = strings.TrimSpace(rawResponse[scoreIndex+endOfScoreLine+1:])
	} else {
		feedbackStr = "Feedback not found in the expected format after the score."
	}

	// The score line may carry trailing words; keep only the leading number.
	parts := strings.Fields(scoreStr)
	if len(parts) > 0 {
		scoreStr = parts[0]
	}

	return scoreStr, feedbackStr, nil
}

func clampScore(score float64) float64 {
	if score > MaxQuestionScore {
		return MaxQuestionScore
	}
	if score < 0 {
		return 0
	}
	return score
}
