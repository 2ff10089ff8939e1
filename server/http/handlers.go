// SPDX-License-Identifier: ice License 1.0

package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/bloodconnect/bloodconnect/database/query"
	"github.com/bloodconnect/bloodconnect/model"
)

// alertPublisher pushes an approved/ad-hoc alert into the broadcast relay.
var alertPublisher func(ctx context.Context, msg model.Message) error

func RegisterAlertPublisher(publish func(ctx context.Context, msg model.Message) error) {
	alertPublisher = publish
}

type APIHandler struct {
	authCfg *AuthConfig
}

func NewAPIHandler(authCfg *AuthConfig) *APIHandler {
	return &APIHandler{authCfg: authCfg}
}

func (h *APIHandler) RequireAnyRole(roles ...string) gin.HandlerFunc {
	return RequireRole(h.authCfg.JWTSecret, roles...)
}

func (h *APIHandler) CreateDonor() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var donor model.Donor
		if err := ginCtx.ShouldBindJSON(&donor); err != nil {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
		donor.Available = true
		if err := query.AcceptDonor(ginCtx.Request.Context(), &donor); err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusCreated, &donor)
	}
}

func (h *APIHandler) ListDonors() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		filter := &query.DonorFilter{
			City:          ginCtx.Query("city"),
			OnlyAvailable: ginCtx.Query("available") == "true",
		}
		if bg := ginCtx.Query("bloodGroup"); bg != "" {
			parsed, err := model.ParseBloodGroup(bg)
			if err != nil {
				ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

				return
			}
			if ginCtx.Query("compatible") == "true" {
				filter.CompatibleWith = parsed
			} else {
				filter.BloodGroup = parsed
			}
		}
		donors, err := query.GetDonors(ginCtx.Request.Context(), filter)
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusOK, gin.H{"donors": donors})
	}
}

func (h *APIHandler) GetDonor() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		donor, err := query.GetDonor(ginCtx.Request.Context(), ginCtx.Param("id"))
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusOK, donor)
	}
}

func (h *APIHandler) CreateRequest() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var request model.BloodRequest
		if err := ginCtx.ShouldBindJSON(&request); err != nil {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
		request.Status = model.RequestStatusPending
		request.Reason = ""
		request.DecidedAt = nil
		if err := query.AcceptRequest(ginCtx.Request.Context(), &request); err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusCreated, &request)
	}
}

func (h *APIHandler) ListRequests() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		filter := &query.RequestFilter{
			Status: model.RequestStatus(ginCtx.Query("status")),
			City:   ginCtx.Query("city"),
		}
		if bg := ginCtx.Query("bloodGroup"); bg != "" {
			parsed, err := model.ParseBloodGroup(bg)
			if err != nil {
				ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

				return
			}
			filter.BloodGroup = parsed
		}
		requests, err := query.GetRequests(ginCtx.Request.Context(), filter)
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusOK, gin.H{"requests": requests})
	}
}

func (h *APIHandler) ApproveRequest() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		request, err := query.DecideRequest(ginCtx.Request.Context(), ginCtx.Param("id"), model.RequestStatusApproved, "")
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		if request.Urgency == model.UrgencyUrgent {
			alert := &model.EmergencyAlert{
				BloodGroup:  request.BloodGroup,
				PatientName: request.PatientName,
				Hospital:    request.Hospital,
				UnitsNeeded: request.Units,
				Contact:     request.Contact,
				Message:     "urgent blood request approved",
			}
			if err = publishAlert(ginCtx.Request.Context(), alert); err != nil {
				// Approval already happened, the broadcast failure must not undo it.
				log.Printf("ERROR:%v", errors.Wrapf(err, "failed to broadcast approval of request %v", request.ID))
			}
		}
		ginCtx.JSON(http.StatusOK, request)
	}
}

func (h *APIHandler) DeclineRequest() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var body struct {
			Reason string `json:"reason"`
		}
		_ = ginCtx.ShouldBindJSON(&body) //nolint:errcheck // Reason is optional.
		request, err := query.DecideRequest(ginCtx.Request.Context(), ginCtx.Param("id"), model.RequestStatusDeclined, body.Reason)
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusOK, request)
	}
}

func (h *APIHandler) PublishEmergency() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var alert model.EmergencyAlert
		if err := ginCtx.ShouldBindJSON(&alert); err != nil {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
		if !alert.BloodGroup.Valid() {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "unknown blood group"})

			return
		}
		if err := publishAlert(ginCtx.Request.Context(), &alert); err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusAccepted, gin.H{"status": "published"})
	}
}

func (h *APIHandler) PublishUrgent() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var urgent model.UrgentRequest
		if err := ginCtx.ShouldBindJSON(&urgent); err != nil || urgent.Message == "" {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})

			return
		}
		if err := publishAlert(ginCtx.Request.Context(), &urgent); err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusAccepted, gin.H{"status": "published"})
	}
}

func (h *APIHandler) RecentAlerts() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		limit, _ := strconv.ParseInt(ginCtx.DefaultQuery("limit", "20"), 10, 64) //nolint:errcheck // Falls back to default below.
		alerts, err := query.GetRecentAlerts(ginCtx.Request.Context(), limit)
		if err != nil {
			abortWithError(ginCtx, err)

			return
		}
		ginCtx.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}

func publishAlert(ctx context.Context, msg model.Message) error {
	if alertPublisher == nil {
		return errors.New("alert publisher is not registered")
	}

	return alertPublisher(ctx, msg)
}

func abortWithError(ginCtx *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidParams):
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		ginCtx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrWrongStatus):
		ginCtx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR:%v", err)
		ginCtx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
