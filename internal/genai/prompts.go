package genai

import (
	"fmt"
	"strings"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

const generateSystemPrompt = "You are an educational expert that writes high-quality academic exam questions aligned with stated learning outcomes."

const analyzeSystemPrompt = "You are an educational expert that analyzes academic questions and provides feedback."

var typeLabels = map[model.QuestionType]string{
	model.QuestionTypeMultipleChoice: "Multiple Choice",
	model.QuestionTypeTrueFalse:      "True/False",
	model.QuestionTypeShortAnswer:    "Short Answer",
	model.QuestionTypeEssay:          "Essay",
}

func buildGeneratePrompt(req engine.GenerationRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write %d exam questions for the following chapter.\n\n", req.Count)
	fmt.Fprintf(&sb, "COURSE: %s\n", req.Chapter.CourseTitle)
	fmt.Fprintf(&sb, "CHAPTER: %s\n", req.Chapter.ChapterTitle)
	if req.Chapter.ILOs != "" {
		fmt.Fprintf(&sb, "INTENDED LEARNING OUTCOMES (ILOs): %s\n", req.Chapter.ILOs)
	}
	fmt.Fprintf(&sb, "QUESTION TYPE: %s\n", typeLabels[req.Type])
	fmt.Fprintf(&sb, "DIFFICULTY: %d on a 1-5 scale (1 easiest, 5 hardest)\n\n", req.Difficulty)

	sb.WriteString("REQUIREMENTS:\n")
	sb.WriteString("- Every question must be answerable from the chapter material and aligned with the ILOs.\n")
	switch req.Type {
	case model.QuestionTypeMultipleChoice:
		sb.WriteString("- Provide exactly 4 options labelled A-D; exactly one must be correct.\n")
	case model.QuestionTypeTrueFalse:
		sb.WriteString("- The correct_answer must be either \"True\" or \"False\".\n")
	case model.QuestionTypeEssay:
		sb.WriteString("- Questions should require analysis or synthesis, not recall.\n")
	}
	sb.WriteString("- Include a brief explanation of the correct answer.\n\n")

	sb.WriteString("Respond ONLY with a JSON object of this exact shape:\n")
	sb.WriteString(`{"questions": [{"content": "...", "options": ["A. ...", "B. ..."], "correct_answer": "...", "explanation": "...", "difficulty": 1}]}`)
	return sb.String()
}

func buildAnalyzePrompt(q model.Question, courseTitle, chapterTitle, ilos string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this academic question and provide feedback.\n\n")
	fmt.Fprintf(&sb, "COURSE: %s\n", courseTitle)
	fmt.Fprintf(&sb, "CHAPTER: %s\n", chapterTitle)
	fmt.Fprintf(&sb, "QUESTION TYPE: %s\n", typeLabels[q.Type])
	if ilos != "" {
		fmt.Fprintf(&sb, "INTENDED LEARNING OUTCOMES (ILOs): %s\n", ilos)
	}
	fmt.Fprintf(&sb, "\nQUESTION: %s\n\n", q.Content)

	sb.WriteString("Provide:\n")
	sb.WriteString("1. DIFFICULTY RATING: rate the question's difficulty from 1.0 to 5.0, considering complexity, cognitive load, and alignment with the ILOs.\n")
	sb.WriteString("2. IMPROVEMENT SUGGESTIONS: specific suggestions to improve clarity, precision, cognitive level, and ILO alignment.\n\n")
	sb.WriteString("Respond ONLY with a JSON object of this exact shape:\n")
	sb.WriteString(`{"difficulty_rating": 3.0, "improvement_suggestions": "..."}`)
	return sb.String()
}
