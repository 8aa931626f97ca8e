package ginblog

import (
	"fmt"
	"reflect"
	"strings"
)

// getDocumentID returns the value of the field mapped to bson "_id", falling
// back to a field named ID or Id.
func getDocumentID(doc interface{}) string {
	val := reflect.ValueOf(doc)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return ""
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return ""
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("bson"), ",")
		if name == "_id" {
			return fmt.Sprint(val.Field(i).Interface())
		}
	}

	for _, name := range []string{"ID", "Id"} {
		if idField := val.FieldByName(name); idField.IsValid() {
			return fmt.Sprint(idField.Interface())
		}
	}
	return ""
}
