package integrations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agentstation/integrations/pkg/errors"
	"github.com/agentstation/integrations/pkg/result"
)

// structValidate checks required fields and nested constraints. Field names
// are reported by their JSON keys.
var structValidate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateTemplate shallowly checks that candidate has the shape of a
// template. It accepts raw JSON ([]byte, string, json.RawMessage), a
// decoded map, or a Config value. Files referenced by the template are not
// read.
func ValidateTemplate(candidate any) result.Result[Config] {
	switch c := candidate.(type) {
	case Config:
		return checked(c)
	case *Config:
		if c == nil {
			return result.Err[Config](errors.NewValidationError("", nil, "expected a JSON object, got null"))
		}
		return checked(*c)
	case SerializedIntegration:
		return checked(c.Config)
	}

	obj, err := toObject(candidate)
	if err != nil {
		return result.Err[Config](err)
	}
	// integrationType is the legacy key for type.
	if _, ok := obj["type"]; !ok {
		if legacy, ok := obj["integrationType"]; ok {
			obj["type"] = legacy
		}
	}

	var cfg Config
	if err := decodeObject(obj, &cfg); err != nil {
		return result.Err[Config](err)
	}
	return checked(cfg)
}

// ValidateInstance shallowly checks that candidate has the shape of an
// integration instance. It accepts the same inputs as ValidateTemplate.
func ValidateInstance(candidate any) result.Result[Instance] {
	var inst Instance
	switch c := candidate.(type) {
	case Instance:
		inst = c
	case *Instance:
		if c == nil {
			return result.Err[Instance](errors.NewValidationError("", nil, "expected a JSON object, got null"))
		}
		inst = *c
	default:
		obj, err := toObject(candidate)
		if err != nil {
			return result.Err[Instance](err)
		}
		if err := decodeObject(obj, &inst); err != nil {
			return result.Err[Instance](err)
		}
	}

	if err := structError(structValidate.Struct(inst)); err != nil {
		return result.Err[Instance](err)
	}
	if inst.DataSource.IsZero() {
		return result.Err[Instance](errors.NewValidationError("dataSource", nil, "is required"))
	}
	if inst.CreationDate.IsZero() {
		return result.Err[Instance](errors.NewValidationError("creationDate", nil, "is required"))
	}
	return result.Ok(inst)
}

func checked(cfg Config) result.Result[Config] {
	if err := structError(structValidate.Struct(cfg)); err != nil {
		return result.Err[Config](err)
	}
	return result.Ok(cfg)
}

// toObject normalizes candidate into a decoded JSON object, rejecting
// arrays, null and primitives.
func toObject(candidate any) (map[string]any, error) {
	var data []byte
	switch c := candidate.(type) {
	case nil:
		return nil, errors.NewValidationError("", nil, "expected a JSON object, got null")
	case map[string]any:
		// Copy so alias handling never mutates the caller's map.
		out := make(map[string]any, len(c))
		for k, v := range c {
			out[k] = v
		}
		return out, nil
	case []byte:
		data = c
	case json.RawMessage:
		data = c
	case string:
		data = []byte(c)
	default:
		encoded, err := json.Marshal(c)
		if err != nil {
			return nil, errors.NewValidationError("", nil, fmt.Sprintf("value is not JSON encodable: %v", err))
		}
		data = encoded
	}

	data = bytes.TrimSpace(data)
	if kind := jsonKind(data); kind != "object" {
		return nil, errors.NewValidationError("", nil, "expected a JSON object, got "+kind)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.NewValidationError("", nil, fmt.Sprintf("invalid JSON: %v", err))
	}
	return obj, nil
}

func decodeObject(obj map[string]any, dst any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.NewValidationError("", nil, fmt.Sprintf("value is not JSON encodable: %v", err))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errors.NewValidationError(typeErr.Field, typeErr.Value,
				fmt.Sprintf("expected %s, got %s", typeName(typeErr.Type), typeErr.Value))
		}
		return errors.NewValidationError("", nil, err.Error())
	}
	return nil
}

// structError converts the first validator failure into a ValidationError
// naming the JSON path, e.g. components[1].name.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.NewValidationError("", nil, err.Error())
	}
	fe := verrs[0]
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	msg := "failed " + fe.Tag() + " constraint"
	if fe.Tag() == "required" {
		msg = "is required"
	}
	return errors.NewValidationError(path, fe.Value(), msg)
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "empty input"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map, reflect.Pointer:
		return "object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.String()
	}
}
