package core

import "testing"

func TestBuffer(t *testing.T) {
	if Buffer("") != nil {
		t.Error("expected nil for empty buffer name")
	}
	b := Buffer("radio")
	if b == nil || *b != "radio" {
		t.Errorf("Buffer(radio) = %v", b)
	}
}

func TestBufferReturnsDistinctPointers(t *testing.T) {
	a := Buffer("main")
	b := Buffer("main")
	if a == b {
		t.Error("expected distinct pointers per call")
	}
}
