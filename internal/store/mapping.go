package store

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const tagName = "db"

var timeType = reflect.TypeOf(time.Time{})

// dateLayouts cobre timestamps do PostgREST, datas puras e RFC3339.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToRow converte uma struct com tags `db` em Row. Campos marcados com
// omitempty e com valor zero não entram na linha.
func ToRow(v any) Row {
	val := reflect.Indirect(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return Row{}
	}
	row := Row{}
	collectFields(val, row)
	return row
}

func collectFields(val reflect.Value, row Row) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := val.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(fv, row)
			continue
		}
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		row[name] = plainValue(fv)
	}
}

// plainValue remove tipos nomeados e ponteiros para que os drivers recebam
// apenas tipos básicos.
func plainValue(fv reflect.Value) any {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	switch fv.Kind() {
	case reflect.String:
		return fv.String()
	case reflect.Bool:
		return fv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fv.Int()
	case reflect.Float32, reflect.Float64:
		return fv.Float()
	}
	return fv.Interface()
}

// FromRow preenche out (ponteiro para struct) a partir de uma Row.
func FromRow(row Row, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		Squash:           true,
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(stringToTimeHook),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return fmt.Errorf("store: decodificar linha: %w", err)
	}
	return nil
}

// FromRows converte uma lista de linhas.
func FromRows[T any](rows []Row) ([]T, error) {
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := FromRow(row, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func stringToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("data inválida: %q", raw)
}
