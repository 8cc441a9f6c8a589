package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalid("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("in use"), http.StatusConflict},
		{New(CodeDuplicateCatalogEntry, "dup"), http.StatusConflict},
		{New(CodeClientLoanLimitExceeded, "limit"), http.StatusConflict},
		{New(CodeNoCopiesAvailable, "none"), http.StatusConflict},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Wrap(CodeIssueFailed, "issue failed", errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("x")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToHTTPStatus(tc.err), tc.err.Error())
	}
}

func TestIsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("return: %w", Wrap(CodeReturnFailed, "return failed", cause))

	assert.True(t, Is(err, CodeReturnFailed))
	assert.False(t, Is(err, CodeIssueFailed))
	assert.ErrorIs(t, err, cause)
}

func TestBodyFromHidesInternalDetails(t *testing.T) {
	b := BodyFrom(errors.New("dial tcp 10.0.0.1:3306: refused"))
	assert.Equal(t, CodeInternal, b.Error.Code)
	assert.Equal(t, "internal error", b.Error.Message)

	b = BodyFrom(Invalid("passport_seria must be 4 digits"))
	assert.Equal(t, CodeInvalidArgument, b.Error.Code)
	assert.Equal(t, "passport_seria must be 4 digits", b.Error.Message)
}

func TestMySQLErrorHelpers(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	ref := &mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"}
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, IsDuplicate(dup))
	assert.False(t, IsDuplicate(ref))
	assert.True(t, IsReferenced(ref))
	assert.True(t, IsMissingReference(fk))
	assert.False(t, IsMissingReference(errors.New("other")))
}

func TestWrapUnknown(t *testing.T) {
	assert.NoError(t, WrapUnknown(nil, CodeIssueFailed, "x"))

	nf := NotFound("client not found")
	assert.Same(t, nf, WrapUnknown(nf, CodeIssueFailed, "issue failed"))

	cause := errors.New("deadlock")
	err := WrapUnknown(cause, CodeIssueFailed, "issue failed")
	assert.True(t, Is(err, CodeIssueFailed))
	assert.ErrorIs(t, err, cause)
}
