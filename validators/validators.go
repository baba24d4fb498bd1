package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return v
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Struct validates v and returns field -> message, or nil when v is valid.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", field)
	case "email":
		return "Invalid email!"
	case "url":
		return fmt.Sprintf("%s must be a valid URL!", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("%s must have at least %s items!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("%s must have at most %s items!", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s!", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s!", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "identifier":
		return fmt.Sprintf("%s may only contain lowercase letters, digits and underscores!", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long!", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid!", field)
}

// ParseBody decodes the request body into dst, trims its strings and
// validates it. It writes the error response itself and returns false
// when the request must stop.
func ParseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	trimStrings(dst)
	if errs := Struct(dst); len(errs) > 0 {
		return false, middleware.ValidationErrorResponse(c, errs)
	}
	return true, nil
}

func trimStrings(dst interface{}) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		switch {
		case f.Kind() == reflect.String && f.CanSet():
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Ptr && !f.IsNil() && f.Elem().Kind() == reflect.String:
			f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
		}
	}
}

// Body returns a handler that validates a body of type T and stores it in
// Locals under key.
func Body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if ok, err := ParseBody(c, reqData); !ok {
			return err
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// ParamIDs parses positive integer route params and stores each one in
// Locals under its own name.
func ParamIDs(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			raw := strings.TrimSpace(c.Params(name))
			if raw == "" {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("%s is required!", label(name)), nil)
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Invalid %s!", label(name)), nil)
			}
			c.Locals(name, uint(id))
		}
		return c.Next()
	}
}

// ID returns a param stored by ParamIDs.
func ID(c *fiber.Ctx, name string) uint {
	id, _ := c.Locals(name).(uint)
	return id
}

func label(param string) string {
	words := strings.Split(param, "_")
	if len(words) == 1 {
		return "ID"
	}
	for i, w := range words {
		if w == "id" {
			words[i] = "ID"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ListQuery holds pagination and filter query parameters shared by list
// endpoints.
type ListQuery struct {
	Page     int    `query:"page" json:"page" validate:"gte=1"`
	Limit    int    `query:"limit" json:"limit" validate:"gte=1,lte=100"`
	Search   string `query:"search" json:"search" validate:"max=100"`
	Category string `query:"category" json:"category"`
	Status   string `query:"status" json:"status"`
	Role     string `query:"role" json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination is the pagination block returned with every list.
func (q ListQuery) Pagination(total int64) fiber.Map {
	return fiber.Map{"total": total, "page": q.Page, "limit": q.Limit}
}

const listQueryKey = "listQuery"

// List validates pagination query parameters.
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := ListQuery{Page: 1, Limit: 10}
		if err := c.QueryParser(&q); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		q.Search = strings.TrimSpace(q.Search)
		q.Category = strings.TrimSpace(q.Category)
		q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
		q.Role = strings.ToUpper(strings.TrimSpace(q.Role))
		if errs := Struct(&q); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(listQueryKey, q)
		return c.Next()
	}
}

// GetList returns the query stored by List, or defaults.
func GetList(c *fiber.Ctx) ListQuery {
	if q, ok := c.Locals(listQueryKey).(ListQuery); ok {
		return q
	}
	return ListQuery{Page: 1, Limit: 10}
}
