package thread

import "testing"

func TestMainThread(t *testing.T) {
	value := 0
	MainWrapMaybe(func() {
		MainMaybe(func() { value = 1 })
	})
	if value != 1 {
		t.Errorf("wrong value %v", value)
	}
}
