package try_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/opst/jobtracker/pkg/utils/try"
)

type fataler struct {
	called []any
}

func (f *fataler) Fatal(v ...any) {
	f.called = append(f.called, v...)
}

func TestTo(t *testing.T) {
	t.Run("ok value passes through", func(t *testing.T) {
		f := new(fataler)
		if v := try.To(42, nil).OrFatal(f); v != 42 {
			t.Errorf("unexpected value: %d", v)
		}
		if len(f.called) != 0 {
			t.Errorf("Fatal is called: %v", f.called)
		}
		if v := try.To(42, nil).OrDefault(7); v != 42 {
			t.Errorf("unexpected value: %d", v)
		}
	})

	t.Run("error calls Fatal and returns zero value", func(t *testing.T) {
		expectedErr := errors.New("fake")
		f := new(fataler)
		if v := try.To(42, expectedErr).OrFatal(f); v != 0 {
			t.Errorf("unexpected value: %d", v)
		}
		if fmt.Sprint(f.called...) != expectedErr.Error() {
			t.Errorf("Fatal is called with unexpected args: %v", f.called)
		}
		if v := try.To(42, expectedErr).OrDefault(7); v != 7 {
			t.Errorf("unexpected value: %d", v)
		}
		if _, err := try.To(42, expectedErr).Get(); !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
