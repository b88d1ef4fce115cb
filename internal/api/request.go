package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/klyr/dotpath/internal/normalize"
)

var errOperandTooLarge = errors.New("operand too large")

// operands is the wire form of a request. A field that is missing stays nil
// and reaches normalize as an invalid argument.
type operands struct {
	Base         *string `json:"base"`
	Path         *string `json:"path"`
	EvaluateDots *bool   `json:"evaluateDots"`
	Segment      *string `json:"segment"`
}

func decodeOperands(r *http.Request) (operands, error) {
	var in operands

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if q.Has("base") {
			v := q.Get("base")
			in.Base = &v
		}
		if q.Has("path") {
			v := q.Get("path")
			in.Path = &v
		}
		if q.Has("segment") {
			v := q.Get("segment")
			in.Segment = &v
		}
		if q.Has("evaluateDots") {
			v, err := strconv.ParseBool(q.Get("evaluateDots"))
			if err != nil {
				return in, fmt.Errorf("evaluateDots: %w", err)
			}
			in.EvaluateDots = &v
		}
	case http.MethodPost:
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return in, maxErr
			}
			return in, fmt.Errorf("decode body: %w", err)
		}
	}

	return in, nil
}

func (in operands) request(op normalize.Op) normalize.Request {
	return normalize.Request{Op: op, Base: in.Base, Path: in.Path, EvaluateDots: in.EvaluateDots, Segment: in.Segment}
}

func checkOperandSize(req normalize.Request, max int) error {
	if max <= 0 {
		return nil
	}
	for _, v := range []*string{req.Base, req.Path, req.Segment} {
		if v != nil && len(*v) > max {
			return errOperandTooLarge
		}
	}
	return nil
}
