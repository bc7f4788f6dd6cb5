package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"devevents/models"
)

func statusFor(k models.Kind) int {
	switch k {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindConflict:
		return http.StatusConflict
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// describe turns err into a status and a message safe for the client.
// Infrastructure failures get fallback, plus the cause in development.
func (d *deps) describe(c *gin.Context, err error, fallback string) (int, string, gin.H) {
	kind := models.KindOf(err)
	extra := gin.H{}
	if kind == models.KindInfrastructure {
		if d.dev {
			log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
			extra["error"] = err.Error()
		}
		return http.StatusInternalServerError, fallback, extra
	}
	var e *models.Error
	if errors.As(err, &e) && e.Field != "" {
		extra["field"] = e.Field
	}
	if kind == models.KindForbidden && d.dev {
		log.Printf("%s %s: forbidden for user %d: %v", c.Request.Method, c.FullPath(), c.GetInt64("userId"), err)
	}
	return statusFor(kind), models.MessageOf(err, fallback), extra
}

func (d *deps) fail(c *gin.Context, err error, fallback string) {
	status, msg, body := d.describe(c, err, fallback)
	body["message"] = msg
	c.JSON(status, body)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
}
