package verification

import "testing"

func TestNewCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}
