package apierr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	mysql "github.com/go-sql-driver/mysql"
)

// ===== Error model (全パッケージで共有) =====
type Code string

const (
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodeNotFound                Code = "NOT_FOUND"
	CodeConflict                Code = "CONFLICT"
	CodeDuplicateCatalogEntry   Code = "DUPLICATE_CATALOG_ENTRY"
	CodeClientLoanLimitExceeded Code = "CLIENT_LOAN_LIMIT_EXCEEDED"
	CodeNoCopiesAvailable       Code = "NO_COPIES_AVAILABLE"
	CodeIssueFailed             Code = "ISSUE_FAILED"
	CodeReturnFailed            Code = "RETURN_FAILED"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeInternal                Code = "INTERNAL"
)

// MySQL error numbers
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func New(code Code, msg string) *APIError  { return &APIError{Code: code, Message: msg} }
func Invalid(msg string) *APIError         { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) *APIError        { return New(CodeNotFound, msg) }
func Conflict(msg string) *APIError        { return New(CodeConflict, msg) }
func Internal(msg string) *APIError        { return New(CodeInternal, msg) }
func Unauthorized(msg string) *APIError    { return New(CodeUnauthorized, msg) }
func Forbidden(msg string) *APIError       { return New(CodeForbidden, msg) }
func Wrap(code Code, msg string, err error) *APIError {
	return &APIError{Code: code, Message: msg, Err: err}
}

// WrapUnknown は APIError ならそのまま返し、それ以外は code で包んでログに残す
func WrapUnknown(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	var api *APIError
	if errors.As(err, &api) {
		return err
	}
	log.Printf("[ERROR] %s: %v", msg, err)
	return Wrap(code, msg, err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == code
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict, CodeDuplicateCatalogEntry, CodeClientLoanLimitExceeded, CodeNoCopiesAvailable:
			return http.StatusConflict
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// ---------- MySQL error helpers ----------

func mysqlNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func IsDuplicate(err error) bool        { return mysqlNumber(err) == mysqlDuplicateEntry }
func IsReferenced(err error) bool       { return mysqlNumber(err) == mysqlRowIsReferenced }
func IsMissingReference(err error) bool { return mysqlNumber(err) == mysqlNoReferencedRow }

// ---------- handler helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func BodyFrom(err error) errorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return Body(api.Code, api.Message)
	}
	// 内部エラーの詳細はクライアントに返さない
	return Body(CodeInternal, "internal error")
}

// Respond はエラーをHTTPステータスとJSONボディに変換して返す
func Respond(c *gin.Context, err error) {
	c.JSON(ToHTTPStatus(err), BodyFrom(err))
}

// Abort はミドルウェア用
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ToHTTPStatus(err), BodyFrom(err))
}
