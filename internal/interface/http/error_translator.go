package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usuariosapp/accounts-api/pkg/apperror"
	"github.com/usuariosapp/accounts-api/pkg/response"
)

// Translation is the user-visible shape of a failure kind.
type Translation struct {
	Status  int
	Message string
}

var translations = map[apperror.Kind]Translation{
	apperror.KindValidationFailed:   {http.StatusBadRequest, "Validation error."},
	apperror.KindMissingField:       {http.StatusBadRequest, "Required field missing."},
	apperror.KindInvalidArgument:    {http.StatusBadRequest, "Invalid argument."},
	apperror.KindDuplicateEmail:     {http.StatusBadRequest, "Invalid argument."},
	apperror.KindUnauthorized:       {http.StatusUnauthorized, "Unauthorized access."},
	apperror.KindNotImplemented:     {http.StatusNotImplemented, "Feature not implemented."},
	apperror.KindNotFound:           {http.StatusNotFound, "Resource not found."},
	apperror.KindOperationFailed:    {http.StatusInternalServerError, "Internal application error."},
	apperror.KindPersistenceFailure: {http.StatusInternalServerError, "Internal application error."},
	apperror.KindUnclassified:       {http.StatusInternalServerError, "Internal application error."},
}

// Translate maps a typed failure to its status, boundary message and error
// detail. Unknown errors are unclassified; their diagnostic detail is
// included only when exposeDetail is set (non-production).
func Translate(err error, exposeDetail bool) (int, string, any) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		t := translations[apperror.KindUnclassified]
		if exposeDetail {
			return t.Status, t.Message, gin.H{"error": err.Error(), "type": fmt.Sprintf("%T", err)}
		}
		return t.Status, t.Message, nil
	}

	t, ok := translations[ae.Kind]
	if !ok {
		t = translations[apperror.KindUnclassified]
	}

	switch ae.Kind {
	case apperror.KindValidationFailed:
		return t.Status, t.Message, ae.Fields
	case apperror.KindOperationFailed, apperror.KindPersistenceFailure, apperror.KindUnclassified:
		if exposeDetail {
			return t.Status, t.Message, ae.Error()
		}
		return t.Status, t.Message, nil
	default:
		return t.Status, t.Message, ae.Message
	}
}

// Fail writes the translated failure into the response envelope.
func Fail(c *gin.Context, err error, exposeDetail bool) {
	status, message, detail := Translate(err, exposeDetail)
	response.Error[any](c, status, message, detail)
}
