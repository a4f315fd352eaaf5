// Package feeders provides configuration feeders for reading data from YAML,
// TOML and JSON files, environment variables and .env files.
package feeders

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// AffixedEnvFeeder is a feeder that reads environment variables named by the
// env struct tag behind a prefix, for example MODSIM_TICK_LENGTH for
// `env:"TICK_LENGTH"` and prefix "MODSIM_".
type AffixedEnvFeeder struct {
	Prefix string
}

// NewAffixedEnvFeeder creates a new AffixedEnvFeeder with the specified prefix
func NewAffixedEnvFeeder(prefix string) AffixedEnvFeeder {
	return AffixedEnvFeeder{Prefix: prefix}
}

// Feed sets every tagged field whose variable is present and not empty.
func (f AffixedEnvFeeder) Feed(structure any) error {
	if f.Prefix == "" {
		return ErrEnvEmptyPrefix
	}
	return feedFromLookup(structure, strings.ToUpper(f.Prefix), os.LookupEnv)
}

// lookupFunc mirrors os.LookupEnv.
type lookupFunc func(key string) (string, bool)

func feedFromLookup(structure any, prefix string, lookup lookupFunc) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return wrapStructureError(structure)
	}
	return feedStruct(rv.Elem(), prefix, lookup)
}

func feedStruct(rv reflect.Value, prefix string, lookup lookupFunc) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if field.Kind() == reflect.Struct && fieldType.Type != reflect.TypeOf(time.Time{}) {
			if err := feedStruct(field, prefix, lookup); err != nil {
				return err
			}
			continue
		}

		envTag, ok := fieldType.Tag.Lookup("env")
		if !ok || envTag == "" || envTag == "-" {
			continue
		}
		key := prefix + envTag
		value, found := lookup(key)
		if !found || value == "" {
			continue
		}
		if !field.CanSet() {
			return ErrFieldCannotBeSet
		}
		if err := setField(field, key, value); err != nil {
			return err
		}
	}
	return nil
}

func setField(field reflect.Value, key, value string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return wrapConversionError(key, value, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	converted, err := cast.FromType(value, field.Type())
	if err != nil {
		return wrapConversionError(key, value, err)
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
