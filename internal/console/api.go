// Exposes the REST surface of the command centre.

package console

import (
	"Studio/internal/auth"
	"Studio/internal/chronicle"
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/log"
	"Studio/pkg/validations"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Registers the REST handlers onto the gin server. Every route sits behind authMW.
func ConsoleHandlers(router *gin.Engine, svc *Service, authMW gin.HandlerFunc, logger log.Logger) {
	group := router.Group("/", authMW)
	{
		group.GET("/health", health())
		group.GET("/state", getState(svc))
		group.GET("/metrics", getMetrics(svc))
		group.POST("/metrics", postMetrics(svc, logger))
		group.GET("/chronicle", getChronicle(svc))
		group.POST("/chronicle", postChronicle(svc, logger))
		group.POST("/guests/join", joinGuest(svc, logger))
		group.POST("/guests/leave", leaveGuest(svc, logger))
		group.POST("/guests/invite", inviteGuest(svc, logger))
		group.POST("/moderator-action", moderatorAction(svc, logger))
		group.POST("/warning", warning(svc, logger))
		group.POST("/alert", alert(svc, logger))
	}
}

func health() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{"status": "operational", "timestamp": time.Now().UTC()})
	}
}

func getState(svc *Service) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, svc.store.Snapshot())
	}
}

func getMetrics(svc *Service) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, svc.store.Metrics())
	}
}

// postMetrics merges the posted fields into the live metrics.
func postMetrics(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var partial map[string]json.RawMessage
		if binderr := gctx.ShouldBindJSON(&partial); binderr != nil {
			logger.WithCtx(gctx).Error().Err(binderr).Msg("Binding error occured with metrics payload.")
			gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
			return
		}
		metrics, err := svc.router.MergeMetrics(gctx, partial)
		if err != nil {
			resp := errors.AsResponse(err)
			gctx.JSON(resp.Status, resp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"success": true, "metrics": metrics})
	}
}

// getChronicle lists the chronicle newest first, narrowed by the optional limit, type and category.
func getChronicle(svc *Service) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		filter := chronicle.Filter{Type: gctx.Query("type"), Match: gctx.Query("category")}
		if raw := gctx.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 {
				gctx.JSON(http.StatusBadRequest, errors.BadRequest("limit must be a positive integer."))
				return
			}
			filter.Limit = limit
		}
		gctx.JSON(http.StatusOK, svc.log.List(filter))
	}
}

// postChronicle appends an entry reported by another service.
func postChronicle(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var draft entity.ChronicleDraft
		if !bindAndValidate(gctx, &draft, logger) {
			return
		}
		if draft.Actor == "" {
			principal, _ := auth.PrincipalFrom(gctx)
			draft.Actor = principal.DisplayName
		}
		entry := svc.router.Record(gctx, draft)
		gctx.JSON(http.StatusCreated, gin.H{"success": true, "entry": entry})
	}
}

func joinGuest(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var guest entity.Guest
		if !bindAndValidate(gctx, &guest, logger) {
			return
		}
		principal, _ := auth.PrincipalFrom(gctx)
		guests := svc.router.AddGuest(gctx, principal.DisplayName, guest)
		gctx.JSON(http.StatusOK, gin.H{"success": true, "guests": guests})
	}
}

// leaveGuest removes a guest; an unknown id still succeeds with removed=false.
func leaveGuest(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req guestLeaveRequest
		if !bindAndValidate(gctx, &req, logger) {
			return
		}
		principal, _ := auth.PrincipalFrom(gctx)
		removed := svc.router.RemoveGuest(gctx, principal.DisplayName, req.GuestID)
		gctx.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
	}
}

// inviteGuest mints a media join token for a prospective guest.
func inviteGuest(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if svc.inviter == nil {
			gctx.JSON(http.StatusNotFound, errors.NotFound("No media server is configured."))
			return
		}
		var req guestInviteRequest
		if !bindAndValidate(gctx, &req, logger) {
			return
		}
		token, err := svc.inviter.GuestToken(gctx, req.GuestID, req.Name)
		if err != nil {
			resp := errors.AsResponse(err)
			gctx.JSON(resp.Status, resp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"success": true, "token": token})
	}
}

func moderatorAction(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req moderatorActionRequest
		if !bindAndValidate(gctx, &req, logger) {
			return
		}
		principal, _ := auth.PrincipalFrom(gctx)
		entry := svc.router.ModeratorAction(gctx, principal, req.Action, req.Target)
		gctx.JSON(http.StatusCreated, gin.H{"success": true, "entry": entry})
	}
}

func warning(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req warningRequest
		if !bindAndValidate(gctx, &req, logger) {
			return
		}
		principal, _ := auth.PrincipalFrom(gctx)
		entry := svc.router.Warn(gctx, principal, req.Title, req.Message)
		gctx.JSON(http.StatusCreated, gin.H{"success": true, "entry": entry})
	}
}

func alert(svc *Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req alertRequest
		if !bindAndValidate(gctx, &req, logger) {
			return
		}
		principal, _ := auth.PrincipalFrom(gctx)
		entry := svc.router.Alert(gctx, principal, req.Severity, req.Title, req.Message)
		gctx.JSON(http.StatusCreated, gin.H{"success": true, "entry": entry})
	}
}

// bindAndValidate decodes the JSON body into v and runs the struct validations.
// On failure the error response has already been written.
func bindAndValidate(gctx *gin.Context, v interface{}, logger log.Logger) bool {
	if binderr := gctx.ShouldBindJSON(v); binderr != nil {
		logger.WithCtx(gctx).Error().Err(binderr).Msgf("Binding error occured with %T.", v)
		gctx.JSON(http.StatusUnprocessableEntity, errors.UnprocessableEntity(""))
		return false
	}
	if errs := validations.ValidateStruct(v); errs != nil {
		resp := errors.GenerateValidationErrorResponse(errs)
		gctx.JSON(resp.Status, resp)
		return false
	}
	return true
}
