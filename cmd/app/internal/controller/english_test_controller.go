package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lexiq-backend/internal/model"
	"lexiq-backend/internal/service"
)

type EnglishTestController struct {
	Tests     service.EnglishTestService
	Answers   service.AnswerService
	Diagnosis service.DiagnosisService
}

func NewEnglishTestController(tests service.EnglishTestService, answers service.AnswerService, diagnosis service.DiagnosisService) *EnglishTestController {
	return &EnglishTestController{Tests: tests, Answers: answers, Diagnosis: diagnosis}
}

type selectLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

type upgradeRequest struct {
	TargetLevel string `json:"target_level" binding:"required"`
}

type submitAnswersRequest struct {
	Answers []model.AnswerSubmission `json:"answers" binding:"required"`
}

// SelectLevel handles POST /english-test/select-level
func (tc *EnglishTestController) SelectLevel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req selectLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "level is required")
		return
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := tc.Tests.SelectLevel(c.Request.Context(), userID, level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "level updated", "english_level": user.EnglishLevel})
}

// Generate handles POST /english-test/generate
func (tc *EnglishTestController) Generate(c *gin.Context) {
	tc.generate(c, tc.Tests.Generate)
}

// Diagnostic handles POST /english-test/diagnostic
func (tc *EnglishTestController) Diagnostic(c *gin.Context) {
	tc.generate(c, tc.Tests.GenerateDiagnostic)
}

func (tc *EnglishTestController) generate(c *gin.Context, fn func(ctx context.Context, userID uuid.UUID) (*service.GeneratedTest, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	test, err := fn(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

// Upgrade handles POST /english-test/upgrade
func (tc *EnglishTestController) Upgrade(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target_level is required")
		return
	}
	target, err := model.ParseLevel(req.TargetLevel)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	test, err := tc.Tests.GenerateUpgrade(c.Request.Context(), userID, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

// SubmitAnswers handles POST /english-test/answers
func (tc *EnglishTestController) SubmitAnswers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid answers payload")
		return
	}
	res, err := tc.Answers.SubmitAnswers(c.Request.Context(), userID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitSession handles POST /english-test/sessions/:session_id/submit
func (tc *EnglishTestController) SubmitSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		badRequest(c, "session_id is not a valid id")
		return
	}
	eval, err := tc.Diagnosis.Evaluate(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}
