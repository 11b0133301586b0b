package coerce

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when a textual value is assigned to a
// time.Time destination. SQLite in particular returns timestamps as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a textual timestamp in one of the layouts commonly
// produced by SQL databases.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("coerce: unrecognized time format %q", s)
}

// Assign stores src, a value produced by a driver (or a decoded default),
// into the variable dst points to. A nil src resets dst to its zero value,
// which is nil for pointer destinations.
func Assign(dst, src any) error {
	if s, ok := dst.(sql.Scanner); ok {
		return s.Scan(src)
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("coerce: destination must be a non-nil pointer, got %T", dst)
	}
	return assignValue(dv.Elem(), src)
}

func assignValue(dv reflect.Value, src any) error {
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	if dv.CanAddr() {
		if s, ok := dv.Addr().Interface().(sql.Scanner); ok {
			return s.Scan(src)
		}
	}
	sv := reflect.ValueOf(src)
	if dv.Kind() == reflect.Pointer {
		// Dereference pointers produced by decoders before allocating.
		if sv.Kind() == reflect.Pointer {
			if sv.IsNil() {
				dv.Set(reflect.Zero(dv.Type()))
				return nil
			}
			return assignValue(dv, sv.Elem().Interface())
		}
		nv := reflect.New(dv.Type().Elem())
		if err := assignValue(nv.Elem(), src); err != nil {
			return err
		}
		dv.Set(nv)
		return nil
	}
	if dv.Kind() == reflect.Interface {
		dv.Set(sv)
		return nil
	}
	if b, ok := src.([]byte); ok && dv.Kind() == reflect.Slice && dv.Type().Elem().Kind() == reflect.Uint8 {
		dv.SetBytes(append([]byte(nil), b...))
		return nil
	}
	if sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	if dv.Type() == timeType {
		t, err := toTime(src)
		if err != nil {
			return err
		}
		dv.Set(reflect.ValueOf(t))
		return nil
	}
	switch dv.Kind() {
	case reflect.String:
		s, err := toString(src)
		if err != nil {
			return err
		}
		dv.SetString(s)
	case reflect.Bool:
		b, err := toBool(src)
		if err != nil {
			return err
		}
		dv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := ToInt64(src)
		if err != nil {
			return err
		}
		if dv.OverflowInt(i) {
			return fmt.Errorf("coerce: value %d overflows %s", i, dv.Type())
		}
		dv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := ToInt64(src)
		if err != nil {
			return err
		}
		if i < 0 || dv.OverflowUint(uint64(i)) {
			return fmt.Errorf("coerce: value %d overflows %s", i, dv.Type())
		}
		dv.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(src)
		if err != nil {
			return err
		}
		dv.SetFloat(f)
	default:
		if sv.Type().ConvertibleTo(dv.Type()) {
			dv.Set(sv.Convert(dv.Type()))
			return nil
		}
		return fmt.Errorf("coerce: cannot assign %T to %s", src, dv.Type())
	}
	return nil
}

// ToInt64 converts integer, integral float and numeric text values to int64.
func ToInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("coerce: %v is not integral", v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("coerce: cannot convert %T to int64", src)
}

func toFloat64(src any) (float64, error) {
	switch v := src.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	i, err := ToInt64(src)
	if err != nil {
		return 0, fmt.Errorf("coerce: cannot convert %T to float64", src)
	}
	return float64(i), nil
}

func toBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	}
	i, err := ToInt64(src)
	if err != nil {
		return false, fmt.Errorf("coerce: cannot convert %T to bool", src)
	}
	return i != 0, nil
}

func toString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	case int64, float64, bool:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("coerce: cannot convert %T to string", src)
}

func toTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return ParseTime(string(v))
	case string:
		return ParseTime(v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("coerce: cannot convert %T to time.Time", src)
}
