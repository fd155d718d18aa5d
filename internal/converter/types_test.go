package converter

import (
	"errors"
	"strings"
	"testing"

	"github.com/napolitain/resource-engine/internal/models"
)

func TestEncodeResources(t *testing.T) {
	tests := []struct {
		name  string
		input models.Resources
		want  string
	}{
		{"game vector", models.FullValue(1, 2.5, 0, -3, 100), "5_1_2.5_0_-3_100"},
		{"single", models.NewResources(0.25), "1_0.25"},
		{"empty", models.NewResources(), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeResources(tt.input); got != tt.want {
				t.Errorf("EncodeResources(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResourcesRoundTrip(t *testing.T) {
	inputs := []models.Resources{
		models.Empty(),
		models.FullValue(1, 2, 3, 4, 5),
		models.NewResources(0.1, 1e-5, 123456.789),
		models.NewResources(-7.5),
		models.NewResources(),
	}

	for _, in := range inputs {
		got, err := DecodeResources(EncodeResources(in))
		if err != nil {
			t.Errorf("DecodeResources(EncodeResources(%v)) error: %v", in, err)
			continue
		}
		if !got.Equal(in) {
			t.Errorf("round trip = %v, want %v", got, in)
		}
	}
}

func TestDecodeResourcesMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"count only, values missing", "3"},
		{"too few values", "3_1_2"},
		{"too many values", "1_1_2"},
		{"non numeric count", "x_1"},
		{"non numeric value", "2_1_abc"},
		{"trailing separator", "1_1_"},
		{"negative count", "-1"},
		{"not a number", "1_NaN"},
		{"infinite", "1_Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResources(tt.input)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("DecodeResources(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestEncodeAbsentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when encoding absent resources")
		}
	}()
	EncodeResources(models.Resources{})
}

func TestIdentifiers(t *testing.T) {
	id, err := DecodeEntityID(EncodeEntityID(models.EntityID(-42)))
	if err != nil || id != -42 {
		t.Errorf("entity round trip = %d, %v", id, err)
	}
	if _, err := DecodeEntityID("4.2"); !errors.Is(err, ErrMalformed) {
		t.Errorf("DecodeEntityID(\"4.2\") error = %v, want ErrMalformed", err)
	}

	pid, err := DecodePlayerID(EncodePlayerID(models.PlayerID(9)))
	if err != nil || pid != 9 {
		t.Errorf("player round trip = %d, %v", pid, err)
	}
	if _, err := DecodePlayerID(""); !errors.Is(err, ErrMalformed) {
		t.Errorf("DecodePlayerID(\"\") error = %v, want ErrMalformed", err)
	}
}

// FuzzDecodeResources checks that decoding never panics and that whatever decodes re-encodes
func FuzzDecodeResources(f *testing.F) {
	f.Add("5_1_2_3_4_5")
	f.Add("0")
	f.Add("2_1")
	f.Add("1_-0.5")
	f.Add("_")

	f.Fuzz(func(t *testing.T, s string) {
		r, err := DecodeResources(s)
		if err != nil {
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("DecodeResources(%q) error %v does not wrap ErrMalformed", s, err)
			}
			return
		}
		again, err := DecodeResources(EncodeResources(r))
		if err != nil {
			t.Fatalf("re-decode of %v: %v", r, err)
		}
		if !again.Equal(r) {
			t.Fatalf("re-decode = %v, want %v", again, r)
		}
		if strings.Count(s, VarSeparator) != r.Len() {
			t.Fatalf("%q decoded to %d values", s, r.Len())
		}
	})
}
