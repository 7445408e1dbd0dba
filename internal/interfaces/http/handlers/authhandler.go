// Package handlers exposes the HTTP surface: account sync and the payment
// intent/capture flow.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	accountUsecases "vtm/internal/application/account/usecases"
	"vtm/internal/domain/account"
	"vtm/internal/shared/logger"
	"vtm/internal/shared/utils"
)

type AuthHandler struct {
	syncAccountUC *accountUsecases.SyncAccountUseCase
	logger        logger.Interface
}

func NewAuthHandler(syncAccountUC *accountUsecases.SyncAccountUseCase, logger logger.Interface) *AuthHandler {
	return &AuthHandler{
		syncAccountUC: syncAccountUC,
		logger:        logger,
	}
}

type SurveyRequest struct {
	Profession string `json:"profession" validate:"max=32"`
	UseCase    string `json:"use_case" validate:"max=32"`
	Source     string `json:"source" validate:"max=32"`
}

type SyncRequest struct {
	Credential string        `json:"credential" validate:"required"`
	Country    string        `json:"country" validate:"required,max=64"`
	Language   string        `json:"language" validate:"required,max=35"`
	Survey     SurveyRequest `json:"survey"`
}

type SyncResponse struct {
	SessionToken      string `json:"session_token"`
	CustomerID        string `json:"customer_id"`
	PlanID            string `json:"plan_id"`
	IsPro             bool   `json:"is_pro"`
	PlanExpiry        string `json:"plan_expiry,omitempty"`
	DailyLimitSeconds int    `json:"daily_limit_seconds"`
	Created           bool   `json:"created"`
}

// Sync verifies the external credential and registers or refreshes the
// account, returning a fresh session token.
func (h *AuthHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := accountUsecases.SyncAccountCommand{
		Credential: req.Credential,
		Country:    req.Country,
		Language:   req.Language,
		Survey: account.SurveyUpdate{
			Profession: req.Survey.Profession,
			UseCase:    req.Survey.UseCase,
			Source:     req.Survey.Source,
		},
	}

	result, err := h.syncAccountUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to sync account", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	response := SyncResponse{
		SessionToken:      result.SessionToken,
		CustomerID:        result.CustomerID,
		PlanID:            result.Effective.PlanID,
		IsPro:             result.Effective.IsPro,
		DailyLimitSeconds: result.Effective.DailyLimitSeconds,
		Created:           result.Created,
	}
	if result.Effective.PlanExpiry != nil {
		response.PlanExpiry = result.Effective.PlanExpiry.Format(time.RFC3339)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	utils.SuccessResponse(c, status, "account synchronized", response)
}
