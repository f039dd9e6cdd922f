package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/model"
)

// Assembly errors.
var (
	ErrNotDraftOwner      = errors.New("caller does not own this draft")
	errGenerationDisabled = fmt.Errorf("%w: no provider configured", engine.ErrGenerationUnavailable)
)

// DraftStore is the persistence surface the assembly path needs. The
// pgx-backed ExamRepository satisfies it; tests substitute an in-memory fake.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft *model.ExamDraft) error
	LoadDraft(ctx context.Context, id uuid.UUID) (*model.ExamDraft, error)
	SaveExam(ctx context.Context, exam *model.Exam) error
}

// QuestionStore is the question-bank surface the assembly path needs beyond
// the engine's own QuestionSource.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	CreateWithID(ctx context.Context, q *model.Question) error
}

// ChapterStore resolves generation context.
type ChapterStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Chapter, error)
}

// CourseStore resolves generation context and validates draft scope.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
}

// FinalizeListener is notified after an exam commits. The analytics service
// implements it; failures there must never roll back a committed exam.
type FinalizeListener interface {
	ExamFinalized(ctx context.Context, exam *model.Exam)
}

// AssemblyService drives the exam assembly engine: draft lifecycle, manual
// edits, the auto-build path, and finalization. Every operation takes the
// caller's role and identity from the JWT claims; the engine re-checks the
// role, this service checks ownership.
type AssemblyService struct {
	engine    *engine.Engine
	drafts    DraftStore
	questions QuestionStore
	chapters  ChapterStore
	courses   CourseStore
	listener  FinalizeListener
	log       zerolog.Logger
}

// NewAssemblyService creates a new AssemblyService. listener may be nil.
func NewAssemblyService(
	eng *engine.Engine,
	drafts DraftStore,
	questions QuestionStore,
	chapters ChapterStore,
	courses CourseStore,
	listener FinalizeListener,
	log zerolog.Logger,
) *AssemblyService {
	return &AssemblyService{
		engine:    eng,
		drafts:    drafts,
		questions: questions,
		chapters:  chapters,
		courses:   courses,
		listener:  listener,
		log:       log.With().Str("component", "assembly_service").Logger(),
	}
}

// CreateDraft opens a new draft for the caller and persists it.
func (s *AssemblyService) CreateDraft(ctx context.Context, role model.Role, ownerID, courseID uuid.UUID, title string) (*model.ExamDraft, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("resolve course: %w", err)
	}
	composer, err := engine.NewComposer(role, ownerID, courseID, title)
	if err != nil {
		return nil, err
	}
	draft := composer.Draft()
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

// GetDraft loads a draft. Reading requires ownership too: drafts are private
// working state, unlike finalized exams.
func (s *AssemblyService) GetDraft(ctx context.Context, role model.Role, callerID, draftID uuid.UUID) (*model.ExamDraft, error) {
	draft, err := s.drafts.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(draft, role, callerID); err != nil {
		return nil, err
	}
	return draft, nil
}

// AddQuestion adds a bank question to the draft. points <= 0 means "use the
// question's default".
func (s *AssemblyService) AddQuestion(ctx context.Context, role model.Role, callerID, draftID, questionID uuid.UUID, points int) (*model.ExamDraft, error) {
	return s.edit(ctx, role, callerID, draftID, func(composer *engine.Composer) error {
		q, err := s.questions.GetByID(ctx, questionID)
		if err != nil {
			return err
		}
		if q.CourseID != composer.Draft().CourseID {
			return fmt.Errorf("%w: question belongs to a different course", engine.ErrInvalidValue)
		}
		if points <= 0 {
			points = q.DefaultPoints
		}
		return composer.AddQuestion(*q, points)
	})
}

// RemoveQuestion removes a question from the draft.
func (s *AssemblyService) RemoveQuestion(ctx context.Context, role model.Role, callerID, draftID, questionID uuid.UUID) (*model.ExamDraft, error) {
	return s.edit(ctx, role, callerID, draftID, func(composer *engine.Composer) error {
		return composer.RemoveQuestion(questionID)
	})
}

// Reorder replaces the draft's question ordering.
func (s *AssemblyService) Reorder(ctx context.Context, role model.Role, callerID, draftID uuid.UUID, ids []uuid.UUID) (*model.ExamDraft, error) {
	return s.edit(ctx, role, callerID, draftID, func(composer *engine.Composer) error {
		return composer.Reorder(ids)
	})
}

// SetPointValue changes the points assigned to a draft question.
func (s *AssemblyService) SetPointValue(ctx context.Context, role model.Role, callerID, draftID, questionID uuid.UUID, points int) (*model.ExamDraft, error) {
	return s.edit(ctx, role, callerID, draftID, func(composer *engine.Composer) error {
		return composer.SetPointValue(questionID, points)
	})
}

// AutoBuild runs the engine's auto-build path against the draft and persists
// the result, including any generated questions admitted into the selection.
// The returned report always accompanies the draft so the author can see
// unmet demand before deciding to finalize.
func (s *AssemblyService) AutoBuild(ctx context.Context, role model.Role, callerID, draftID uuid.UUID, req model.AutoBuildRequest) (*model.ExamDraft, *engine.SelectionReport, error) {
	draft, err := s.drafts.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireOwner(draft, role, callerID); err != nil {
		return nil, nil, err
	}
	composer, err := engine.Resume(role, draft)
	if err != nil {
		return nil, nil, err
	}

	spec, err := s.buildSpec(draft.CourseID, req)
	if err != nil {
		return nil, nil, err
	}
	chapterCtx, err := s.buildChapterContext(ctx, draft.CourseID, req.ChapterIDs)
	if err != nil {
		return nil, nil, err
	}

	selection, err := s.engine.AutoBuild(ctx, role, composer, spec, chapterCtx, req.UseGeneration)
	if err != nil {
		return nil, nil, err
	}

	// Generated questions must live in the bank before the draft references
	// them; repository candidates are already there.
	for _, cand := range selection.Candidates {
		if cand.Provenance != engine.ProvenanceGenerated {
			continue
		}
		q := cand.Question
		q.CreatedBy = callerID
		if err := s.questions.CreateWithID(ctx, &q); err != nil {
			return nil, nil, fmt.Errorf("persist generated question: %w", err)
		}
	}

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, nil, fmt.Errorf("save draft: %w", err)
	}

	report := selection.Report
	return draft, &report, nil
}

// Finalize commits the draft into an immutable exam and notifies analytics.
func (s *AssemblyService) Finalize(ctx context.Context, role model.Role, callerID, draftID uuid.UUID) (*model.Exam, error) {
	draft, err := s.drafts.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(draft, role, callerID); err != nil {
		return nil, err
	}
	composer, err := engine.Resume(role, draft)
	if err != nil {
		return nil, err
	}

	exam, err := composer.Finalize()
	if err != nil {
		return nil, err
	}

	if err := s.drafts.SaveExam(ctx, exam); err != nil {
		return nil, fmt.Errorf("save exam: %w", err)
	}

	if s.listener != nil {
		s.listener.ExamFinalized(ctx, exam)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", exam.Totals.QuestionCount).
		Int("points", exam.Totals.PointTotal).
		Msg("exam finalized")

	return exam, nil
}

// edit is the shared load → check owner → mutate → save path for manual
// draft operations. The mutation applies in memory first; a failed save
// leaves the stored draft untouched.
func (s *AssemblyService) edit(ctx context.Context, role model.Role, callerID, draftID uuid.UUID, op func(*engine.Composer) error) (*model.ExamDraft, error) {
	draft, err := s.drafts.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(draft, role, callerID); err != nil {
		return nil, err
	}
	composer, err := engine.Resume(role, draft)
	if err != nil {
		return nil, err
	}
	if err := op(composer); err != nil {
		return nil, err
	}
	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

// requireOwner enforces single-author drafts. Admins may take over a draft,
// matching how the rest of the platform treats admin as a superset role.
func (s *AssemblyService) requireOwner(draft *model.ExamDraft, role model.Role, callerID uuid.UUID) error {
	if draft.OwnerID == callerID || role == model.RoleAdmin {
		return nil
	}
	return ErrNotDraftOwner
}

// buildSpec converts the HTTP request into an engine SelectionSpec.
func (s *AssemblyService) buildSpec(courseID uuid.UUID, req model.AutoBuildRequest) (engine.SelectionSpec, error) {
	typeCounts := make(map[model.QuestionType]int, len(req.TypeCounts))
	for t, n := range req.TypeCounts {
		typeCounts[model.QuestionType(t)] = n
	}
	diffCounts := make(map[int]int, len(req.DifficultyCounts))
	for d, n := range req.DifficultyCounts {
		parsed, err := parseDifficulty(d)
		if err != nil {
			return engine.SelectionSpec{}, err
		}
		diffCounts[parsed] = n
	}

	spec := engine.SelectionSpec{
		CourseID:         courseID,
		ChapterIDs:       req.ChapterIDs,
		Total:            req.Total,
		TypeCounts:       typeCounts,
		DifficultyCounts: diffCounts,
		Tags:             req.Tags,
		Exclude:          req.ExcludeIDs,
	}
	return spec, spec.Validate()
}

// buildChapterContext resolves the material handed to the generator. With an
// explicit chapter scope the first chapter anchors the prompt; otherwise the
// course alone does.
func (s *AssemblyService) buildChapterContext(ctx context.Context, courseID uuid.UUID, chapterIDs []uuid.UUID) (engine.ChapterContext, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return engine.ChapterContext{}, fmt.Errorf("resolve course: %w", err)
	}
	out := engine.ChapterContext{CourseID: courseID, CourseTitle: course.Title}

	if len(chapterIDs) > 0 {
		chapter, err := s.chapters.GetByID(ctx, chapterIDs[0])
		if err != nil {
			return engine.ChapterContext{}, fmt.Errorf("resolve chapter: %w", err)
		}
		out.ChapterID = chapter.ID
		out.ChapterTitle = chapter.Title
		out.ILOs = chapter.ILOs
	}
	return out, nil
}

func parseDifficulty(s string) (int, error) {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '5' {
		return int(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: difficulty key %q", engine.ErrInvalidValue, s)
}
