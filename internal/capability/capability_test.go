package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunc(t *testing.T) {
	var got []string
	var c Capability[string] = Func[string](func(_ context.Context, op string) error {
		got = append(got, op)
		if op == "fail" {
			return errors.New("boom")
		}
		return nil
	})

	assert.NoError(t, c.Perform(context.Background(), "ok"))
	assert.EqualError(t, c.Perform(context.Background(), "fail"), "boom")
	assert.Equal(t, []string{"ok", "fail"}, got)
}
