package controllers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/catalog"
	"github.com/cppla/winterarc/repository"
	"github.com/cppla/winterarc/services/progression"
	"github.com/cppla/winterarc/utils"
)

const maxNoteRunes = 5000

// QuestionController serves the catalog and per-user notes.
type QuestionController struct {
	catalog *catalog.Catalog
	engine  *progression.Engine
	notes   *repository.NoteRepository
	today   Clock
}

// NewQuestionController creates a QuestionController.
func NewQuestionController(cat *catalog.Catalog, engine *progression.Engine, notes *repository.NoteRepository, today Clock) *QuestionController {
	return &QuestionController{catalog: cat, engine: engine, notes: notes, today: today}
}

// ListQuestions returns the catalog, optionally filtered by topic, flagged with the caller's progress.
func (q *QuestionController) ListQuestions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	topic := strings.TrimSpace(ctx.Query("topic"))

	snap, err := q.engine.Snapshot(ctx.Request.Context(), userID, q.today())
	if err != nil {
		progressError(ctx, err)
		return
	}
	notes, err := q.notes.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load notes")
		return
	}

	done := make(map[string]bool, len(snap.Completed))
	for _, id := range snap.Completed {
		done[id] = true
	}

	questions := q.catalog.ByTopic(topic)
	items := make([]gin.H, 0, len(questions))
	for _, question := range questions {
		items = append(items, gin.H{
			"id":                    question.ID,
			"title":                 question.Title,
			"question_url":          question.QuestionURL,
			"difficulty":            question.Difficulty,
			"coins":                 question.Coins,
			"topic":                 question.Topic,
			"day_number":            question.DayNumber,
			"question_order":        question.QuestionOrder,
			"conceptual_difficulty": question.ConceptualDifficulty,
			"completed":             done[question.ID],
			"has_note":              notes[question.ID] != "",
		})
	}

	utils.Success(ctx, gin.H{
		"items":           items,
		"topics":          q.catalog.Topics(),
		"today_completed": snap.Daily.QuestionsCompleted,
		"daily_limit":     q.engine.DailyLimit(),
	})
}

// GetNote returns the caller's note for a question; a missing note is an empty string.
func (q *QuestionController) GetNote(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	questionID := strings.TrimSpace(ctx.Param("id"))
	if _, ok := q.catalog.Lookup(questionID); !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "unknown question")
		return
	}

	note, found, err := q.notes.Get(ctx.Request.Context(), userID, questionID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load note")
		return
	}
	if !found {
		utils.Success(ctx, gin.H{"question_id": questionID, "note_content": "", "updated_at": nil})
		return
	}
	utils.Success(ctx, gin.H{"question_id": questionID, "note_content": note.NoteContent, "updated_at": note.UpdatedAt})
}

// PutNote creates or replaces the caller's note.
func (q *QuestionController) PutNote(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	questionID := strings.TrimSpace(ctx.Param("id"))
	if _, ok := q.catalog.Lookup(questionID); !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "unknown question")
		return
	}

	var req struct {
		NoteContent string `json:"note_content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	content := utils.Sanitize(strings.TrimSpace(req.NoteContent))
	if utf8.RuneCountInString(content) > maxNoteRunes {
		utils.Error(ctx, http.StatusBadRequest, 40021, "note is too long")
		return
	}

	note, err := q.notes.Upsert(ctx.Request.Context(), userID, questionID, content)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to save note")
		return
	}
	utils.Success(ctx, gin.H{"question_id": questionID, "note_content": note.NoteContent, "updated_at": note.UpdatedAt})
}
