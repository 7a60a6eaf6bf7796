package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("expected %+v got %+v", in, out)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("expected nil cursor for blank input, got %v %v", c, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		in         PageParams
		wantSize   int
		wantOffset int
	}{
		{PageParams{}, DefaultLimit, 0},
		{PageParams{Page: 3, PageSize: 10}, 10, 20},
		{PageParams{Page: -1, PageSize: 500}, MaxLimit, 0},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize().PageSize; got != tt.wantSize {
			t.Fatalf("%+v: expected size %d got %d", tt.in, tt.wantSize, got)
		}
		if got := tt.in.Offset(); got != tt.wantOffset {
			t.Fatalf("%+v: expected offset %d got %d", tt.in, tt.wantOffset, got)
		}
	}
}

func TestLimitWithBuffer(t *testing.T) {
	tests := map[int]int{0: DefaultLimit + 1, 2: 3, MaxLimit + 50: MaxLimit + 1}
	for in, want := range tests {
		if got := LimitWithBuffer(in); got != want {
			t.Fatalf("LimitWithBuffer(%d) = %d, want %d", in, got, want)
		}
	}
}
