package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

// statusFor maps a service error kind to an HTTP status and a hint telling
// the client which step to return to.
func statusFor(kind services.ErrorKind) (int, string) {
	switch kind {
	case services.KindUnauthorized, services.KindForbidden, services.KindPendingApproval:
		return http.StatusForbidden, ""
	case services.KindInvalidCredentials:
		return http.StatusUnauthorized, ""
	case services.KindNotFound:
		return http.StatusNotFound, ""
	case services.KindMenuNotPublished:
		return http.StatusNotFound, "date"
	case services.KindNoEntitlement:
		return http.StatusPaymentRequired, "plans"
	case services.KindEmptySelection, services.KindInvalidQuantity, services.KindItemNotEligible,
		services.KindInvalidPayment, services.KindValidation:
		return http.StatusBadRequest, ""
	case services.KindNoCoveringSubscription:
		return http.StatusConflict, "plans"
	case services.KindAlreadyFinalized, services.KindInvalidTransition:
		return http.StatusConflict, ""
	case services.KindConflict, services.KindDuplicate:
		return http.StatusConflict, "reload"
	case services.KindExpiredSession:
		return http.StatusGone, "plans"
	}
	return http.StatusInternalServerError, ""
}

// respondServiceError writes err in the standard envelope. Anything that
// is not a service error is logged and hidden behind a generic 500.
func respondServiceError(c *gin.Context, err error) {
	kind, ok := services.KindOf(err)
	if !ok {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	code, next := statusFor(kind)
	if next != "" {
		utils.RespondErrorNext(c, code, err, next)
		return
	}
	utils.RespondError(c, code, err)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return nil, false
	}
	v := uint(id)
	return &v, true
}
