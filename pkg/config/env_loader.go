/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/discovery-handler/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

const configJSONVar = "CONFIG_JSON"

//nolint:gochecknoglobals // reflect types used for comparisons
var (
	durationType    = reflect.TypeOf(time.Duration(0))
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// EnvConfigLoader loads configuration from environment variables.
// Nested fields are addressed by joining json tags with underscores, so
// DISCOVERY_HANDLER_ONVIF_HTTP_TIMEOUT maps to config.Onvif.HTTPTimeout.
// A complete document in <prefix>CONFIG_JSON is applied first and individual
// variables override it.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	if log == nil {
		log = createBasicLogger()
	}

	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	if v.Elem().Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if raw, ok := os.LookupEnv(e.prefix + configJSONVar); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %s%s: %w", e.prefix, configJSONVar, err)
		}

		e.logger.Debug().Msg("Loaded configuration from CONFIG_JSON")
	}

	set, err := e.loadStruct(v.Elem(), e.prefix)
	if err != nil {
		return err
	}

	e.logger.Debug().Int("overrides", set).Msg("Applied environment configuration")

	return nil
}

// loadStruct walks exported fields with a json tag and returns how many were set.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) (int, error) {
	t := v.Type()
	set := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}

		n, err := e.loadField(field, prefix+strings.ToUpper(strings.ReplaceAll(name, ".", "_")))
		if err != nil {
			return set, err
		}

		set += n
	}

	return set, nil
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}

	name, _, _ := strings.Cut(tag, ",")

	return name
}

func (e *EnvConfigLoader) loadField(field reflect.Value, envName string) (int, error) {
	if isStructLike(field) && !implementsUnmarshaler(field) {
		return e.loadNested(field, envName+"_")
	}

	raw, ok := os.LookupEnv(envName)
	if !ok || raw == "" {
		return 0, nil
	}

	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		field = field.Elem()
	}

	if err := setValue(field, raw); err != nil {
		return 0, fmt.Errorf("%s: %w", envName, err)
	}

	e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

	return 1, nil
}

// loadNested only allocates nil struct pointers when a variable targets them.
func (e *EnvConfigLoader) loadNested(field reflect.Value, prefix string) (int, error) {
	if field.Kind() != reflect.Ptr {
		return e.loadStruct(field, prefix)
	}

	if !field.IsNil() {
		return e.loadStruct(field.Elem(), prefix)
	}

	if !e.anyWithPrefix(prefix) {
		return 0, nil
	}

	fresh := reflect.New(field.Type().Elem())

	n, err := e.loadStruct(fresh.Elem(), prefix)
	if err != nil || n == 0 {
		return 0, err
	}

	field.Set(fresh)

	return n, nil
}

func (*EnvConfigLoader) anyWithPrefix(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}

func isStructLike(field reflect.Value) bool {
	t := field.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct
}

func implementsUnmarshaler(field reflect.Value) bool {
	t := field.Type()
	if t.Kind() != reflect.Ptr {
		t = reflect.PointerTo(t)
	}

	return t.Implements(unmarshalerType)
}

// setValue converts raw into field's kind. Types with their own JSON decoding
// receive the raw text first as a JSON string and then verbatim.
func setValue(field reflect.Value, raw string) error {
	if implementsUnmarshaler(field) {
		target := field.Addr().Interface()

		quoted, _ := json.Marshal(raw)
		if err := json.Unmarshal(quoted, target); err == nil {
			return nil
		}

		return json.Unmarshal([]byte(raw), target)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(raw, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}

			field.Set(reflect.ValueOf(parts).Convert(field.Type()))

			return nil
		}

		return json.Unmarshal([]byte(raw), field.Addr().Interface())
	default:
		if err := json.Unmarshal([]byte(raw), field.Addr().Interface()); err != nil {
			return fmt.Errorf("unsupported type %s: %w", field.Kind(), err)
		}
	}

	return nil
}

func setInt(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		field.SetInt(int64(d))

		return nil
	}

	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}

	field.SetInt(i)

	return nil
}
