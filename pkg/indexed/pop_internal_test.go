package indexed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_List_Pop_Releases_Vacated_Slot(t *testing.T) {
	t.Parallel()

	var l List[*int]

	a, b, c := new(int), new(int), new(int)
	l.Append(a)
	l.Append(b)
	l.Append(c)

	assert.True(t, l.Pop(1))
	assert.Equal(t, 2, l.Len())

	vacated := l.slots[:3][2]
	assert.Nil(t, vacated.value)
	assert.False(t, vacated.present)

	got, ok := l.Get(2)
	assert.True(t, ok)
	assert.Same(t, c, got)
}
