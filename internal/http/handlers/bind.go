package handlers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
)

var tagNameOnce sync.Once

// useJSONFieldNames makes validation errors name the JSON field.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body, returning a 400 apierr on failure.
func bindJSON(c *gin.Context, dst any) error {
	useJSONFieldNames()
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest(describeBindError(err))
	}
	return nil
}

func describeBindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
			case "min", "gte":
				msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
			case "max", "lte":
				msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
			default:
				msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
			}
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if errors.Is(err, io.EOF) {
		return errors.New("request body is required")
	}
	return fmt.Errorf("invalid JSON body: %w", err)
}
