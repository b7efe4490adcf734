package indexed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/tabedit/pkg/indexed"
)

// snapshot renders a list as a slice of pointers so holes show up as nil in
// assertion output.
func snapshot[T any](l *indexed.List[T]) []*T {
	out := make([]*T, 0, l.Len())

	for i := 1; i <= l.Len(); i++ {
		v, ok := l.Get(i)
		if !ok {
			out = append(out, nil)

			continue
		}

		out = append(out, &v)
	}

	return out
}

func ptr[T any](v T) *T { return &v }

func Test_List_Zero_Value_Is_Empty(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Last())

	_, ok := l.Get(1)
	assert.False(t, ok, "empty list has no position 1")
	assert.False(t, l.Pop(1))
	assert.False(t, l.Clear(1))
}

func Test_List_Nil_Receiver_Reads_Are_Total(t *testing.T) {
	t.Parallel()

	var l *indexed.List[string]

	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Has(1))

	for range l.All() {
		t.Fatal("nil list must not yield")
	}
}

func Test_List_Set_Pads_With_Holes_When_Index_Past_End(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	require.NoError(t, l.Set(10, 3))

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []*int{nil, nil, ptr(10)}, snapshot(&l))

	// Filling a hole later does not change the length.
	require.NoError(t, l.Set(20, 2))
	assert.Equal(t, []*int{nil, ptr(20), ptr(10)}, snapshot(&l))
}

func Test_List_Set_Overwrites_When_Position_Present(t *testing.T) {
	t.Parallel()

	var l indexed.List[string]

	l.Append("a")
	require.NoError(t, l.Set("b", 1))

	v, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, l.Len())
}

func Test_List_Writers_Reject_Index_Below_One(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	require.ErrorIs(t, l.Set(1, 0), indexed.ErrIndex)
	require.ErrorIs(t, l.Insert(1, -2), indexed.ErrIndex)
	assert.Equal(t, 0, l.Len(), "rejected writes must not grow the list")
}

func Test_List_Insert_Shifts_Later_Positions_Up(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	l.Append(1)
	l.Append(3)
	require.NoError(t, l.Insert(2, 2))

	assert.Equal(t, []*int{ptr(1), ptr(2), ptr(3)}, snapshot(&l))
}

func Test_List_Insert_Appends_When_Index_Is_One_Past_End(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	l.Append(1)
	require.NoError(t, l.Insert(2, 2))

	assert.Equal(t, []*int{ptr(1), ptr(2)}, snapshot(&l), "no trailing hole")
}

func Test_List_Insert_Pads_When_Index_Far_Past_End(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	require.NoError(t, l.Insert(7, 3))

	assert.Equal(t, []*int{nil, nil, ptr(7)}, snapshot(&l))
}

func Test_List_Pop_Shifts_Down_And_Reports_Range(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	l.Append(1)
	require.NoError(t, l.Set(3, 3))

	require.True(t, l.Pop(1))
	assert.Equal(t, []*int{nil, ptr(3)}, snapshot(&l))

	assert.False(t, l.Pop(0))
	assert.False(t, l.Pop(3))
	assert.Equal(t, 2, l.Len())
}

func Test_List_Clear_Makes_Hole_Without_Shifting(t *testing.T) {
	t.Parallel()

	var l indexed.List[int]

	l.Append(1)
	l.Append(2)

	require.True(t, l.Clear(1))
	assert.Equal(t, []*int{nil, ptr(2)}, snapshot(&l))
	assert.Equal(t, 1, l.Present())
	assert.Equal(t, 2, l.Last())
}

func Test_List_All_Skips_Holes_In_Order(t *testing.T) {
	t.Parallel()

	var l indexed.List[string]

	require.NoError(t, l.Set("c", 5))
	require.NoError(t, l.Set("a", 2))

	var positions []int

	var values []string

	for i, v := range l.All() {
		positions = append(positions, i)
		values = append(values, v)
	}

	assert.Equal(t, []int{2, 5}, positions)
	assert.Equal(t, []string{"a", "c"}, values)
}

func Test_List_Clone_Is_Independent_And_Keeps_Holes(t *testing.T) {
	t.Parallel()

	var l indexed.List[*int]

	one := 1
	require.NoError(t, l.Set(&one, 2))

	clone := l.Clone(func(p *int) *int {
		v := *p

		return &v
	})

	*mustGet(t, &clone, 2) = 99

	assert.Equal(t, 1, one, "clone must deep copy through copyFn")
	assert.Equal(t, 2, clone.Len())
	assert.False(t, clone.Has(1))
}

func Test_List_EqualFunc_Compares_Hole_Positions(t *testing.T) {
	t.Parallel()

	eq := func(a, b int) bool { return a == b }

	var a, b indexed.List[int]

	require.NoError(t, a.Set(1, 2))
	require.NoError(t, b.Set(1, 2))
	assert.True(t, a.EqualFunc(&b, eq))

	b.Clear(2)
	require.NoError(t, b.Set(1, 1))
	assert.False(t, a.EqualFunc(&b, eq), "same values at different positions differ")
}

func mustGet[T any](t *testing.T, l *indexed.List[T], i int) T {
	t.Helper()

	v, ok := l.Get(i)
	require.True(t, ok, "position %d should be present", i)

	return v
}
