package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// bindDestinationFields reads a JSON or form body into DestinationFields.
// Values of the wrong type are recorded as rejections instead of failing the
// bind, so the service can report them together with every other violation.
// id, ownerId, createdAt and unknown keys are ignored.
func bindDestinationFields(c echo.Context) (domain.DestinationFields, error) {
	raw, err := readPayload(c.Request())
	if err != nil {
		return domain.DestinationFields{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return decodeDestinationFields(raw), nil
}

func readPayload(req *http.Request) (map[string]any, error) {
	ctype := req.Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return readForm(req, ctype)
	}

	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func readForm(req *http.Request, ctype string) (map[string]any, error) {
	if strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
	} else if err := req.ParseForm(); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(req.PostForm))
	for key, values := range req.PostForm {
		key = strings.TrimSuffix(key, "[]")
		if key == domain.FieldActivities {
			list, _ := out[key].([]any)
			for _, v := range values {
				list = append(list, v)
			}
			out[key] = list
			continue
		}
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out, nil
}

func decodeDestinationFields(raw map[string]any) domain.DestinationFields {
	var f domain.DestinationFields

	for _, s := range []struct {
		key string
		dst **string
	}{
		{domain.FieldName, &f.Name},
		{domain.FieldCategory, &f.Category},
		{domain.FieldDescription, &f.Description},
		{domain.FieldImg, &f.Img},
		{domain.FieldLocation, &f.Location},
	} {
		v, ok := raw[s.key]
		if !ok || v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			f.Reject(s.key, s.key+" must be a string")
			continue
		}
		*s.dst = &str
	}

	for _, n := range []struct {
		key string
		dst **float64
	}{
		{domain.FieldPrice, &f.Price},
		{domain.FieldRating, &f.Rating},
	} {
		v, ok := raw[n.key]
		if !ok || v == nil {
			continue
		}
		num, ok := toNumber(v)
		if !ok {
			f.Reject(n.key, n.key+" must be a number")
			continue
		}
		*n.dst = &num
	}

	if v, ok := raw[domain.FieldActivities]; ok && v != nil {
		if acts, ok := toStrings(v); ok {
			f.Activities = &acts
		} else {
			f.Reject(domain.FieldActivities, "activities must be an array of strings")
		}
	}

	return f
}

// toNumber accepts JSON numbers and numeric strings.
func toNumber(v any) (float64, bool) {
	var (
		n   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		n, err = t.Float64()
	case float64:
		n = t
	case string:
		n, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func toStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
