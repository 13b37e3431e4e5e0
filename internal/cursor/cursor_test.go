package cursor

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	k := Key{ID: "3f6c2", UpdatedAt: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)}

	got, err := Decode(Encode(k))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != k.ID || !got.UpdatedAt.Equal(k.UpdatedAt) {
		t.Errorf("Decode(Encode(k)) = %+v, want %+v", got, k)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, tok := range []string{"", "%%%", Encode(Key{ID: "x"})[:3], "bm9zZXA"} {
		if _, err := Decode(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Decode(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}
