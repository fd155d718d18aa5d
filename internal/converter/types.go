// Package converter provides conversions between the delimiter-based wire form and model types
package converter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/napolitain/resource-engine/internal/models"
)

const (
	// VarSeparator joins the fields of one value
	VarSeparator = "_"
	// ObjectSeparator joins the values of one object
	ObjectSeparator = "@"
)

// ErrMalformed is wrapped by every decoding failure
var ErrMalformed = errors.New("malformed wire data")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// EncodeResources writes <count>_<v0>_<v1>...
func EncodeResources(r models.Resources) string {
	if r.IsZero() {
		panic("converter: encode absent resources")
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(r.Len()))
	for i := 0; i < r.Len(); i++ {
		sb.WriteString(VarSeparator)
		sb.WriteString(strconv.FormatFloat(r.Get(i), 'g', -1, 64))
	}
	return sb.String()
}

// DecodeResources parses the form written by EncodeResources
func DecodeResources(s string) (models.Resources, error) {
	fields := strings.Split(s, VarSeparator)
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.Resources{}, malformed("resource count %q", fields[0])
	}
	if count < 0 || count != len(fields)-1 {
		return models.Resources{}, malformed("resource count %d, got %d values", count, len(fields)-1)
	}
	values := make([]float64, count)
	for i := range values {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Resources{}, malformed("resource value %q", fields[i+1])
		}
		values[i] = v
	}
	return models.NewResources(values...), nil
}

// EncodeEntityID writes an entity identifier
func EncodeEntityID(id models.EntityID) string {
	return strconv.FormatInt(int64(id), 10)
}

// DecodeEntityID parses an entity identifier
func DecodeEntityID(s string) (models.EntityID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, malformed("entity id %q", s)
	}
	return models.EntityID(v), nil
}

// EncodePlayerID writes a player identifier
func EncodePlayerID(id models.PlayerID) string {
	return strconv.Itoa(int(id))
}

// DecodePlayerID parses a player identifier
func DecodePlayerID(s string) (models.PlayerID, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed("player id %q", s)
	}
	return models.PlayerID(v), nil
}

// EncodeTransferCause writes the wire code of a cause
func EncodeTransferCause(c models.TransferCause) string {
	return strconv.Itoa(int(c))
}

// DecodeTransferCause parses a cause wire code
func DecodeTransferCause(s string) (models.TransferCause, error) {
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed("cause %q", s)
	}
	cause, err := models.TransferCauseOf(code)
	if err != nil {
		return 0, malformed("%v", err)
	}
	return cause, nil
}

// splitObject splits s on ObjectSeparator and requires exactly n fields
func splitObject(s string, n int) ([]string, error) {
	fields := strings.Split(s, ObjectSeparator)
	if len(fields) != n {
		return nil, malformed("%d fields, want %d", len(fields), n)
	}
	return fields, nil
}
