package Controllers

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// decimals are validated as numbers
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	// multipart forms carry amounts as strings
	fiber.SetParserDecoder(fiber.ParserConfig{
		IgnoreUnknownKeys: true,
		ZeroEmpty:         true,
		ParserType: []fiber.ParserType{{
			Customtype: decimal.Decimal{},
			Converter: func(s string) reflect.Value {
				if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
					return reflect.ValueOf(d)
				}
				return reflect.Value{}
			},
		}},
	})
}

// ValidationError lists translated messages per field
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, e.Fields[k])
	}
	return strings.Join(messages, "; ")
}

// parseBody decodes the request into input and runs its validate tags
func parseBody(ctx *fiber.Ctx, input interface{}) error {
	if err := ctx.BodyParser(input); err != nil {
		return err
	}
	return validateStruct(input)
}

func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrors))}
	for _, fe := range fieldErrors {
		out.Fields[fe.Field()] = fe.Translate(trans)
	}
	return out
}

// badRequest answers 400 with the error message, adding per-field details for validation errors
func badRequest(ctx *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	var ve *ValidationError
	if errors.As(err, &ve) {
		body["fields"] = ve.Fields
	}
	return ctx.Status(fiber.StatusBadRequest).JSON(body)
}

func parseID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// queryID reads an optional numeric query parameter, 0 when absent
func queryID(ctx *fiber.Ctx, name string) (uint, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.New("Invalid date format. Use YYYY-MM-DD")
	}
	return date, nil
}

func optionalDate(value string) (*datatypes.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	date, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(date)
	return &d, nil
}
