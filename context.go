package ginblog

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	RoleAdmin = "admin"

	authContextKey = "auth"
	userIDKey      = "user_id"
	roleKey        = "role"
)

type AuthContext struct {
	UserID    string
	UserEmail string
	Name      string
	Picture   string
	Roles     []string
	Claims    map[string]interface{}
}

func (a AuthContext) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// SetAuthContext stores the authenticated caller on the gin context.
func SetAuthContext(c *gin.Context, auth AuthContext) {
	c.Set(authContextKey, auth)
	c.Set(userIDKey, auth.UserID)
	if len(auth.Roles) > 0 {
		c.Set(roleKey, auth.Roles[len(auth.Roles)-1])
	}
}

func GetAuthContext(c *gin.Context) (AuthContext, error) {
	value, exists := c.Get(authContextKey)
	if !exists {
		return AuthContext{}, ErrUnauthorized
	}
	auth, ok := value.(AuthContext)
	if !ok || auth.UserID == "" {
		return AuthContext{}, ErrUnauthorized
	}
	return auth, nil
}

type Context struct {
	*gin.Context
	fileService FileService
}

func NewContext(c *gin.Context, fileService FileService) *Context {
	return &Context{
		Context:     c,
		fileService: fileService,
	}
}

func (c *Context) GetFileService() FileService {
	return c.fileService
}

// GetAuthContext returns the current auth context
func (c *Context) GetAuthContext() (AuthContext, error) {
	return GetAuthContext(c.Context)
}

// GetRequest binds the request body (or query string for GET) into request.
func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBind(request); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return ErrBadRequest.New(describeValidation(validationErrs))
		}
		return ErrBadRequest.New("bad request: " + err.Error())
	}
	return nil
}

func (c *Context) GetPageRequest() (PageRequest, error) {
	pageString := c.DefaultQuery("page", "1")
	sizeString := c.DefaultQuery("size", "10")
	sortString := c.DefaultQuery("sort", "_id,asc")
	page, err := strconv.ParseInt(pageString, 10, 64)
	if err != nil || page < 1 {
		return PageRequest{}, ErrBadRequest.New("page must be a positive integer")
	}
	size, err := strconv.ParseInt(sizeString, 10, 64)
	if err != nil || size < 1 || size > MaxPageSize {
		return PageRequest{}, ErrBadRequest.New(fmt.Sprintf("size must be between 1 and %d", MaxPageSize))
	}
	sortSplit := strings.Split(sortString, ",")
	sort := SortField{
		Field:     sortSplit[0],
		Direction: 1,
	}
	if len(sortSplit) > 1 && sortSplit[1] == "desc" {
		sort.Direction = -1
	}

	return PageRequest{Page: int(page), Size: int(size), Sort: sort}, nil
}

func (c *Context) SendError(err error) {
	SendError(c.Context, err)
}

// respond writes a handler result. Strings are sent as plain text,
// EmptyResponse as 204 and StatusResponse with its own status.
func (c *Context) respond(result interface{}) {
	switch r := result.(type) {
	case string:
		c.String(http.StatusOK, r)
	case EmptyResponse:
		c.Status(http.StatusNoContent)
		c.Writer.WriteHeaderNow()
	case StatusResponse:
		c.JSON(r.Status, r.Body)
	default:
		c.JSON(http.StatusOK, result)
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}
