package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_RecordsInOrder(t *testing.T) {
	rec := NewRecorder[string]()

	rec.Record("a")
	rec.Record("b")

	assert.Equal(t, []string{"a", "b"}, rec.Events())
	assert.Equal(t, 2, rec.Len())
}

func TestRecorder_EventsReturnsCopy(t *testing.T) {
	rec := NewRecorder[int]()
	rec.Record(1)

	got := rec.Events()
	got[0] = 99

	assert.Equal(t, []int{1}, rec.Events())
}

func TestRecorder_Reset(t *testing.T) {
	rec := NewRecorder[int]()
	rec.Record(1)

	rec.Reset()

	assert.Empty(t, rec.Events())
	assert.Equal(t, 0, rec.Len())
}
