package converter

import (
	"errors"
	"strings"
	"testing"

	"github.com/napolitain/resource-engine/internal/models"
)

func TestValueDtoRoundTrip(t *testing.T) {
	dto := models.ValueDto{
		Entity:    models.EntityID(12),
		Resources: models.FullValue(100, 50.5, 3, 0, 7),
		Time:      1_700_000_123_456,
	}

	s := EncodeValueDto(dto)
	if want := "12@5_100_50.5_3_0_7@1700000123456"; s != want {
		t.Errorf("EncodeValueDto = %q, want %q", s, want)
	}

	got, err := DecodeValueDto(s)
	if err != nil {
		t.Fatalf("DecodeValueDto(%q): %v", s, err)
	}
	if !got.Equal(dto) {
		t.Errorf("round trip = %+v, want %+v", got, dto)
	}
}

func TestTransferDtoRoundTrip(t *testing.T) {
	for _, cause := range models.AllTransferCauses() {
		t.Run(cause.String(), func(t *testing.T) {
			dto := models.TransferDto{
				Receiver:  models.PlayerID(3),
				Giver:     models.PlayerID(8),
				Resources: models.BasicValue(10, 20, 30),
				Cause:     cause,
			}
			got, err := DecodeTransferDto(EncodeTransferDto(dto))
			if err != nil {
				t.Fatalf("DecodeTransferDto: %v", err)
			}
			if !got.Equal(dto) {
				t.Errorf("round trip = %+v, want %+v", got, dto)
			}
		})
	}
}

func TestDecodeValueDtoMalformed(t *testing.T) {
	valid := EncodeValueDto(models.ValueDto{Entity: 1, Resources: models.MetalValue(5), Time: 10})

	tests := []struct {
		name  string
		input string
	}{
		{"truncated at first object", valid[:strings.Index(valid, ObjectSeparator)]},
		{"missing time", valid[:strings.LastIndex(valid, ObjectSeparator)]},
		{"extra field", valid + ObjectSeparator + "1"},
		{"bad entity", "x@1_1@10"},
		{"bad resources", "1@2_1@10"},
		{"bad time", "1@1_1@soon"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeValueDto(tt.input); !errors.Is(err, ErrMalformed) {
				t.Errorf("DecodeValueDto(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestDecodeTransferDtoMalformed(t *testing.T) {
	valid := EncodeTransferDto(models.TransferDto{Receiver: 1, Giver: 2, Resources: models.EnergyValue(4), Cause: models.CauseGift})

	tests := []struct {
		name  string
		input string
	}{
		{"truncated at first object", valid[:strings.Index(valid, ObjectSeparator)]},
		{"missing cause", valid[:strings.LastIndex(valid, ObjectSeparator)]},
		{"bad receiver", "a@2@1_1@0"},
		{"bad giver", "1@b@1_1@0"},
		{"bad resources", "1@2@1_x@0"},
		{"bad cause", "1@2@1_1@z"},
		{"unknown cause", "1@2@1_1@99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTransferDto(tt.input); !errors.Is(err, ErrMalformed) {
				t.Errorf("DecodeTransferDto(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestTransferOrder(t *testing.T) {
	order := models.TransferOrder{Giver: 4, Receiver: 9, Resources: models.NewResources(1.5, 0), Cause: models.CauseTax}
	wire := EncodeTransferOrder(order)
	if wire != "4@9@2_1.5_0@3" {
		t.Errorf("EncodeTransferOrder = %q", wire)
	}
	got, err := DecodeTransferOrder(wire)
	if err != nil {
		t.Fatalf("DecodeTransferOrder: %v", err)
	}
	if got.Giver != order.Giver || got.Receiver != order.Receiver || got.Cause != order.Cause || !got.Resources.Equal(order.Resources) {
		t.Errorf("round trip = %+v, want %+v", got, order)
	}

	for _, input := range []string{"4@9@2_1_0", "x@9@1_1@0", "4@y@1_1@0", "4@9@1_z@0", "4@9@1_1@7"} {
		if _, err := DecodeTransferOrder(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeTransferOrder(%q) error = %v, want ErrMalformed", input, err)
		}
	}
}

func FuzzDecodeValueDto(f *testing.F) {
	f.Add("12@5_100_50.5_3_0_7@1700000123456")
	f.Add("1@0@1")
	f.Add("@@")

	f.Fuzz(func(t *testing.T, s string) {
		dto, err := DecodeValueDto(s)
		if err != nil {
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("DecodeValueDto(%q) error %v does not wrap ErrMalformed", s, err)
			}
			return
		}
		again, err := DecodeValueDto(EncodeValueDto(dto))
		if err != nil || !again.Equal(dto) {
			t.Fatalf("re-decode = %+v, %v; want %+v", again, err, dto)
		}
	})
}
