package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"time"
)

// JSONResponse sends a JSON response and ensures slices are never null.
// Nil slices encode as "null" by default, which breaks frontends that
// expect arrays; this helper rewrites them to empty arrays first.
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalized)
}

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return data
		}
		normalized := normalizeSlices(v.Elem().Interface())
		result := reflect.New(v.Elem().Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			normalized := normalizeSlices(v.Index(i).Interface())
			result.Index(i).Set(reflect.ValueOf(normalized))
		}
		return result.Interface()

	case reflect.Map:
		if v.IsNil() {
			return data
		}
		result := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value := iter.Value()
			if value.Kind() == reflect.Interface && value.IsNil() {
				result.SetMapIndex(iter.Key(), value)
				continue
			}
			normalized := normalizeSlices(value.Interface())
			result.SetMapIndex(iter.Key(), reflect.ValueOf(normalized))
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == timeType {
			return data
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() || !result.Field(i).CanSet() {
				continue
			}
			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct:
				normalized := normalizeSlices(field.Interface())
				result.Field(i).Set(reflect.ValueOf(normalized))
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}

	return data
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := JSONResponse(w, payload); err != nil {
		w.Write([]byte(`{"error":"Internal server error"}`))
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
