package buffer

import (
	"encoding/binary"
	"testing"
)

func TestGroupReadBufferLayout(t *testing.T) {
	b := NewGroupReadBuffer(2)
	if got, want := b.Size(), 3*8+2*16; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	buf := b.Bytes()
	binary.NativeEndian.PutUint64(buf[0:], 2)  // nr
	binary.NativeEndian.PutUint64(buf[8:], 10) // time_enabled
	binary.NativeEndian.PutUint64(buf[16:], 7) // time_running
	binary.NativeEndian.PutUint64(buf[24:], 100)
	binary.NativeEndian.PutUint64(buf[32:], 1) // id of entry 0
	binary.NativeEndian.PutUint64(buf[40:], 200)
	binary.NativeEndian.PutUint64(buf[48:], 2) // id of entry 1

	if b.NR() != 2 {
		t.Fatalf("NR() = %d, want 2", b.NR())
	}
	if b.TimeEnabled() != 10 || b.TimeRunning() != 7 {
		t.Fatalf("TimeEnabled/TimeRunning = %d/%d, want 10/7", b.TimeEnabled(), b.TimeRunning())
	}

	e0, ok := b.Entry(0)
	if !ok || e0.Value != 100 || e0.ID != 1 {
		t.Fatalf("Entry(0) = %+v, %v, want {100 1}, true", e0, ok)
	}
	e1, ok := b.Entry(1)
	if !ok || e1.Value != 200 || e1.ID != 2 {
		t.Fatalf("Entry(1) = %+v, %v, want {200 2}, true", e1, ok)
	}
	if _, ok := b.Entry(2); ok {
		t.Fatalf("Entry(2) out of nr range returned ok=true")
	}
}

func TestSingleReadBufferLayout(t *testing.T) {
	b := NewSingleReadBuffer()
	if got, want := b.Size(), 4*8; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	buf := b.Bytes()
	binary.NativeEndian.PutUint64(buf[0:], 42)
	binary.NativeEndian.PutUint64(buf[8:], 100)
	binary.NativeEndian.PutUint64(buf[16:], 100)
	binary.NativeEndian.PutUint64(buf[24:], 9)

	if b.Value() != 42 {
		t.Fatalf("Value() = %d, want 42", b.Value())
	}
	if b.TimeEnabled() != b.TimeRunning() {
		t.Fatalf("TimeEnabled() != TimeRunning(): %d != %d", b.TimeEnabled(), b.TimeRunning())
	}
	if b.ID() != 9 {
		t.Fatalf("ID() = %d, want 9", b.ID())
	}
}
