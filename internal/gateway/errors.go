package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var httpStatus = map[codes.Code]int{
	codes.InvalidArgument:  http.StatusBadRequest,
	codes.NotFound:         http.StatusNotFound,
	codes.AlreadyExists:    http.StatusConflict,
	codes.PermissionDenied: http.StatusForbidden,
	codes.Unauthenticated:  http.StatusUnauthorized,
	codes.DeadlineExceeded: http.StatusRequestTimeout,
	codes.Aborted:          http.StatusConflict,
	codes.Unavailable:      http.StatusServiceUnavailable,
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorBody{StatusCode: code, Message: msg})
}

// writeRPCError maps an auth service error to the HTTP response.
func writeRPCError(c *gin.Context, err error) {
	st, ok := status.FromError(err)
	if !ok {
		abort(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	code, ok := httpStatus[st.Code()]
	if !ok {
		abort(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	msg := st.Message()
	if st.Code() == codes.DeadlineExceeded {
		msg = "Request timeout"
	}
	abort(c, code, msg)
}

func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "password" {
				parts = append(parts, "password must be at least 8 characters with upper case, lower case and a digit")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		abort(c, http.StatusBadRequest, strings.Join(parts, "; "))
		return
	}
	abort(c, http.StatusBadRequest, "invalid request body")
}
