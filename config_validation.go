package modsim

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// Struct tag keys
	tagDefault  = "default"
	tagRequired = "required"
	tagDesc     = "desc"
)

// ConfigValidator is implemented by config structs that need validation
// beyond required fields. ValidateConfig calls it after defaults are applied.
type ConfigValidator interface {
	Validate() error
}

// ProcessConfigDefaults applies `default:"value"` tags to every zero field
// of the struct cfg points to. Nested structs are processed recursively.
//
// Supported field types are string, bool, the integer and float kinds and
// time.Duration.
func ProcessConfigDefaults(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}
	return processStructDefaults(v)
}

func structValue(cfg any) (reflect.Value, error) {
	if cfg == nil {
		return reflect.Value{}, ErrConfigNil
	}
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, ErrConfigNotPointer
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrConfigNotStruct
	}
	return v, nil
}

func processStructDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !field.IsZero() {
			continue
		}

		if err := setDefaultValue(field, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
	}
	return nil
}

func setDefaultValue(field reflect.Value, defaultVal string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(defaultVal)
		if err != nil {
			return fmt.Errorf("failed to parse duration value: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(defaultVal)
	case reflect.Bool:
		b, err := strconv.ParseBool(defaultVal)
		if err != nil {
			return fmt.Errorf("failed to parse bool value: %w", err)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(defaultVal, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse int value: %w", err)
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(defaultVal, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse uint value: %w", err)
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(defaultVal, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to parse float value: %w", err)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTypeForDefault, field.Kind())
	}
	return nil
}

// ValidateConfigRequired checks every field tagged `required:"true"` is set.
func ValidateConfigRequired(cfg any) error {
	v, err := structValue(cfg)
	if err != nil {
		return err
	}

	var missing []string
	validateRequiredFields(v, "", &missing)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigRequiredFieldMissing, strings.Join(missing, ", "))
	}
	return nil
}

func validateRequiredFields(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			validateRequiredFields(field, fieldName, missing)
			continue
		}
		if required, ok := fieldType.Tag.Lookup(tagRequired); ok && required == "true" && field.IsZero() {
			*missing = append(*missing, fieldName)
		}
	}
}

// ValidateConfig validates a configuration using the following steps:
// 1. Processes default values
// 2. Validates required fields
// 3. If the config implements ConfigValidator, calls its Validate method
func ValidateConfig(cfg any) error {
	if err := ProcessConfigDefaults(cfg); err != nil {
		return err
	}
	if err := ValidateConfigRequired(cfg); err != nil {
		return err
	}
	if validator, ok := cfg.(ConfigValidator); ok {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GenerateSampleConfig renders a defaulted instance of cfg's type.
// The format parameter can be "yaml", "json", or "toml".
func GenerateSampleConfig(cfg any, format string) ([]byte, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	t := reflect.TypeOf(cfg)
	if t.Kind() != reflect.Ptr {
		return nil, ErrConfigNotPointer
	}

	sample := reflect.New(t.Elem()).Interface()
	if err := ProcessConfigDefaults(sample); err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err := yaml.Marshal(sample)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(sample, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		return data, nil
	case "toml":
		var buf strings.Builder
		if err := toml.NewEncoder(&buf).Encode(sample); err != nil {
			return nil, fmt.Errorf("failed to marshal to TOML: %w", err)
		}
		return []byte(buf.String()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormatType, format)
	}
}

// ConfigFieldDocs returns the desc tag of every documented field keyed by
// its yaml name.
func ConfigFieldDocs(cfg any) map[string]string {
	docs := make(map[string]string)
	t := reflect.TypeOf(cfg)
	if t == nil {
		return docs
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return docs
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		desc, ok := f.Tag.Lookup(tagDesc)
		if !ok {
			continue
		}
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "" {
			name = f.Name
		}
		docs[name] = desc
	}
	return docs
}
