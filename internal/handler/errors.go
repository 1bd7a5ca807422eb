package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ellison351/gis-web/internal/domain/model"
)

// statusFor ドメインエラーをHTTPステータスとエラーコードに対応付ける
func statusFor(err error) (int, string) {
	var loadErr *model.LoadError
	switch {
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, "sites_unavailable"
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrSessionClosed):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, model.ErrFeatureNotFound):
		return http.StatusNotFound, "feature_not_found"
	case errors.Is(err, model.ErrStoryNotFound):
		return http.StatusNotFound, "story_not_found"
	case errors.Is(err, model.ErrNoRoutableTarget):
		return http.StatusConflict, "no_routable_target"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// noticeFor 画面に出す文言があれば返す
func noticeFor(err error) string {
	var loadErr *model.LoadError
	switch {
	case errors.As(err, &loadErr):
		return model.LoadFailureNotice
	case errors.Is(err, model.ErrNoRoutableTarget):
		return model.NoTargetNotice
	default:
		return ""
	}
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, model.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Notice:  noticeFor(err),
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   "invalid_request",
		Message: "リクエストの形式が正しくありません: " + err.Error(),
	})
}
