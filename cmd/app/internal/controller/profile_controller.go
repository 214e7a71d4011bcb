package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/service"
)

type ProfileController struct {
	Profile     service.ProfileService
	ProgressSvc service.ProgressService
	Reports     service.ReportService
}

func NewProfileController(profile service.ProfileService, progress service.ProgressService, reports service.ReportService) *ProfileController {
	return &ProfileController{Profile: profile, ProgressSvc: progress, Reports: reports}
}

// Me handles GET /profile/me
func (pc *ProfileController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := pc.Profile.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// History handles GET /profile/history
func (pc *ProfileController) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	history, err := pc.Profile.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// DownloadHistory handles GET /profile/history/report
func (pc *ProfileController) DownloadHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pdf, err := pc.Reports.HistoryPDF(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("english_test_history_%s.pdf", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Progress handles GET /profile/progress
func (pc *ProfileController) Progress(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	data, err := pc.ProgressSvc.GenerateProgressData(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// UpdateEmail handles POST /profile/update-email
func (pc *ProfileController) UpdateEmail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}
	change, err := pc.Profile.RequestEmailChange(c.Request.Context(), userID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, change)
}

// VerifyEmail handles POST /profile/verify-email
func (pc *ProfileController) VerifyEmail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	user, err := pc.Profile.VerifyEmail(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email updated", "email": user.Email})
}
