// internal/api/response.go
// Response envelope and actor-error-to-HTTP-status translation for the
// Router, per spec.md §6/§7. Grounded on the teacher's handler style
// (gin.H JSON bodies) but standardized into {success, data, error}.

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/actor"
)

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// failFromActorError maps an actor.Error's Kind onto the HTTP status
// spec.md §7 assigns it: ValidationError/StateViolationError/
// NotInitializedError -> 400-class, PersistenceError -> 500-class. An
// ArchiverError is only ever surfaced from ResolveDraw, when finalizing
// the match record fails after the match has been archived; it maps to
// 500 too.
func failFromActorError(c *gin.Context, err error) {
	var actorErr *actor.Error
	if errors.As(err, &actorErr) {
		switch actorErr.Kind {
		case actor.ErrValidation, actor.ErrStateViolation, actor.ErrNotInitialized:
			fail(c, http.StatusBadRequest, actorErr.Message)
			return
		case actor.ErrPersistence, actor.ErrArchiver:
			fail(c, http.StatusInternalServerError, actorErr.Message)
			return
		}
	}
	fail(c, http.StatusInternalServerError, err.Error())
}
