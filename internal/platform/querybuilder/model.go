package querybuilder

import (
	"reflect"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// InsertModels builds one multi-row insert from structs tagged with `db`. All models must share a type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, crerr.Wrapf(ErrIncompleteQuery, "no rows for %s", table)
	}

	b := InsertInto(table).Suffix(suffix)
	for idx, model := range models {
		columns, values, err := modelColumns(model)
		if err != nil {
			return "", nil, crerr.Wrapf(err, "row %d", idx)
		}
		if idx == 0 {
			b.Columns(columns...)
		}
		b.Values(values...)
	}
	return b.ToSQL()
}

func modelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, crerr.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, crerr.Newf("model must be a struct, got %s", value.Kind())
	}

	typ := value.Type()
	columns := make([]string, 0, typ.NumField())
	values := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if column == "" || column == "-" {
			continue
		}
		columns = append(columns, column)
		values = append(values, value.Field(i).Interface())
	}
	if len(columns) == 0 {
		return nil, nil, crerr.New("model has no db columns")
	}
	return columns, values, nil
}
