package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/anjiri1684/mentora/apperrors"
	"github.com/anjiri1684/mentora/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizQuestionInput struct {
	Prompt        string   `json:"prompt" validate:"required,min=3"`
	Options       []string `json:"options" validate:"required,min=2,max=10,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"gte=0"`
	Position      *int     `json:"position" validate:"omitempty,gte=0"`
}

// QuizQuestionView is a question as shown to students, without the answer.
type QuizQuestionView struct {
	ID       uuid.UUID `json:"id"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Position int       `json:"position"`
}

type QuizView struct {
	MaterialID  uuid.UUID          `json:"material_id"`
	Title       string             `json:"title"`
	PassPercent float64            `json:"pass_percent"`
	Questions   []QuizQuestionView `json:"questions"`
}

// QuizSubmission maps question ids to the chosen option index.
type QuizSubmission struct {
	Answers map[uuid.UUID]int `json:"answers" validate:"required"`
}

type QuizResult struct {
	Attempt  *models.QuizAttempt `json:"attempt"`
	Correct  int                 `json:"correct"`
	Total    int                 `json:"total"`
	Progress *CourseProgress     `json:"progress,omitempty"`
}

type QuizService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
	passPercent float64
}

func NewQuizService(db *gorm.DB, enrollments *EnrollmentService, passPercent float64) *QuizService {
	if passPercent <= 0 || passPercent > 100 {
		passPercent = 70
	}
	return &QuizService{db: db, enrollments: enrollments, passPercent: passPercent}
}

func validateQuestion(in QuizQuestionInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.CorrectOption >= len(in.Options) {
		return apperrors.BadRequest("correct_option must index one of the %d options", len(in.Options))
	}
	return nil
}

func loadQuizMaterial(tx *gorm.DB, actor Actor, materialID uuid.UUID) (*models.Material, error) {
	material, _, err := loadOwnedDraftMaterial(tx, actor, materialID)
	if err != nil {
		return nil, err
	}
	if material.Type != models.MaterialQuiz {
		return nil, apperrors.BadRequest("Material is not a quiz")
	}
	return material, nil
}

func (s *QuizService) AddQuestion(actor Actor, materialID uuid.UUID, in QuizQuestionInput) (*models.QuizQuestion, error) {
	if err := validateQuestion(in); err != nil {
		return nil, err
	}
	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, errors.Wrap(err, "encoding options")
	}

	var question models.QuizQuestion
	err = s.db.Transaction(func(tx *gorm.DB) error {
		material, err := loadQuizMaterial(tx, actor, materialID)
		if err != nil {
			return err
		}
		position, err := nextPosition(tx, &models.QuizQuestion{}, "material_id = ?", material.ID)
		if err != nil {
			return err
		}
		if in.Position != nil {
			position = *in.Position
		}
		question = models.QuizQuestion{
			MaterialID:    material.ID,
			Prompt:        strings.TrimSpace(in.Prompt),
			Options:       datatypes.JSON(options),
			CorrectOption: in.CorrectOption,
			Position:      position,
		}
		return errors.Wrap(tx.Create(&question).Error, "creating quiz question")
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuizService) UpdateQuestion(actor Actor, questionID uuid.UUID, in QuizQuestionInput) (*models.QuizQuestion, error) {
	if err := validateQuestion(in); err != nil {
		return nil, err
	}
	options, err := json.Marshal(in.Options)
	if err != nil {
		return nil, errors.Wrap(err, "encoding options")
	}

	var question models.QuizQuestion
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &question, "Quiz question", "id = ?", questionID); err != nil {
			return err
		}
		if _, err := loadQuizMaterial(tx, actor, question.MaterialID); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"prompt":         strings.TrimSpace(in.Prompt),
			"options":        datatypes.JSON(options),
			"correct_option": in.CorrectOption,
		}
		if in.Position != nil {
			updates["position"] = *in.Position
		}
		if err := tx.Model(&question).Updates(updates).Error; err != nil {
			return errors.Wrap(err, "updating quiz question")
		}
		return first(tx, &question, "Quiz question", "id = ?", questionID)
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuizService) DeleteQuestion(actor Actor, questionID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var question models.QuizQuestion
		if err := first(tx, &question, "Quiz question", "id = ?", questionID); err != nil {
			return err
		}
		if _, err := loadQuizMaterial(tx, actor, question.MaterialID); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(&question).Error, "deleting quiz question")
	})
}

// ListQuestions returns the full questions, answers included, to the owner.
func (s *QuizService) ListQuestions(actor Actor, materialID uuid.UUID) ([]models.QuizQuestion, error) {
	var material models.Material
	if err := first(s.db, &material, "Material", "id = ?", materialID); err != nil {
		return nil, err
	}
	if _, err := loadOwnedCourse(s.db, actor, material.CourseID); err != nil {
		return nil, err
	}
	questions := make([]models.QuizQuestion, 0)
	err := s.db.Where("material_id = ?", materialID).Order("position asc, created_at asc").Find(&questions).Error
	return questions, errors.Wrap(err, "listing quiz questions")
}

// GetQuiz returns the questions of a quiz material to an enrolled student.
func (s *QuizService) GetQuiz(userID, materialID uuid.UUID) (*QuizView, error) {
	material, err := s.quizForStudent(userID, materialID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions(materialID)
	if err != nil {
		return nil, err
	}

	view := &QuizView{
		MaterialID:  material.ID,
		Title:       material.Title,
		PassPercent: s.passPercent,
		Questions:   make([]QuizQuestionView, len(questions)),
	}
	for i, q := range questions {
		view.Questions[i] = QuizQuestionView{ID: q.ID, Prompt: q.Prompt, Options: q.OptionList(), Position: q.Position}
	}
	return view, nil
}

// SubmitAttempt grades the answers. Unanswered questions count as wrong. A
// passing attempt completes the material.
func (s *QuizService) SubmitAttempt(userID, materialID uuid.UUID, in QuizSubmission) (*QuizResult, error) {
	if in.Answers == nil {
		return nil, apperrors.BadRequest("answers are required")
	}
	if _, err := s.quizForStudent(userID, materialID); err != nil {
		return nil, err
	}
	questions, err := s.questions(materialID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperrors.BadRequest("This quiz has no questions yet")
	}

	correct := 0
	for _, q := range questions {
		if answer, ok := in.Answers[q.ID]; ok && answer == q.CorrectOption {
			correct++
		}
	}
	score := math.Round(float64(correct)*10000/float64(len(questions))) / 100

	answers, err := json.Marshal(in.Answers)
	if err != nil {
		return nil, errors.Wrap(err, "encoding answers")
	}
	attempt := models.QuizAttempt{
		UserID:     userID,
		MaterialID: materialID,
		Answers:    datatypes.JSON(answers),
		Score:      score,
		Passed:     score >= s.passPercent,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, errors.Wrap(err, "saving quiz attempt")
	}

	result := &QuizResult{Attempt: &attempt, Correct: correct, Total: len(questions)}
	if attempt.Passed {
		progress, err := s.enrollments.completeMaterial(userID, materialID, true)
		if err != nil {
			return nil, err
		}
		result.Progress = progress
	}
	return result, nil
}

func (s *QuizService) Attempts(userID, materialID uuid.UUID) ([]models.QuizAttempt, error) {
	attempts := make([]models.QuizAttempt, 0)
	err := s.db.Where("user_id = ? AND material_id = ?", userID, materialID).
		Order("created_at desc").
		Find(&attempts).Error
	return attempts, errors.Wrap(err, "listing quiz attempts")
}

func (s *QuizService) quizForStudent(userID, materialID uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := first(s.db, &material, "Material", "id = ?", materialID); err != nil {
		return nil, err
	}
	if material.Type != models.MaterialQuiz {
		return nil, apperrors.BadRequest("Material is not a quiz")
	}
	if _, err := requireAccess(s.db, userID, material.CourseID); err != nil {
		return nil, err
	}
	return &material, nil
}

func (s *QuizService) questions(materialID uuid.UUID) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	err := s.db.Where("material_id = ?", materialID).Order("position asc, created_at asc").Find(&questions).Error
	return questions, errors.Wrap(err, "listing quiz questions")
}
