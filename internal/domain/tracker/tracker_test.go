package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		prev Flags
		kind Kind
		want Flags
	}{
		{name: "canvas dirties", kind: KindCanvas3D, want: Flags{SaveEnabled: true}},
		{name: "structure dirties", kind: KindStructure, want: Flags{SaveEnabled: true}},
		{name: "representation dirties", kind: KindRepresentation, want: Flags{SaveEnabled: true}},
		{name: "other kind ignored", kind: Kind("Behavior"), want: Flags{}},
		{name: "event without object ignored", kind: "", want: Flags{}},
		{name: "kind match is exact", kind: Kind("representation"), want: Flags{}},
		{name: "never clears save", prev: Flags{SaveEnabled: true}, kind: Kind("Data"), want: Flags{SaveEnabled: true}},
		{name: "reset untouched", prev: Flags{ResetEnabled: true}, kind: KindStructure, want: Flags{SaveEnabled: true, ResetEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.prev, tt.kind))
		})
	}
}

func TestSaveEnabledIsMonotonic(t *testing.T) {
	tr := New(Flags{})
	kinds := []Kind{"Data", KindRepresentation, "Behavior", "", KindCanvas3D, "Model"}

	seenTrue := false
	for _, k := range kinds {
		f := tr.Observe(k)
		if seenTrue {
			assert.True(t, f.SaveEnabled, "save flag dropped after %q", k)
		}
		seenTrue = seenTrue || f.SaveEnabled
	}
	assert.True(t, tr.Flags().SaveEnabled)
}

func TestMarkRestored(t *testing.T) {
	tr := New(Flags{})
	tr.Observe(KindStructure)

	f := tr.MarkRestored()
	assert.Equal(t, Flags{SaveEnabled: false, ResetEnabled: true}, f)
	assert.Equal(t, f, tr.Flags())
}

func TestMarkSavedKeepsSaveEnabled(t *testing.T) {
	tr := New(Flags{})
	tr.Observe(KindRepresentation)

	f := tr.MarkSaved()
	assert.Equal(t, Flags{SaveEnabled: true, ResetEnabled: true}, f)
}

func TestMarkCleared(t *testing.T) {
	tr := New(Flags{ResetEnabled: true})
	assert.Equal(t, Flags{}, tr.MarkCleared())
}

func TestSubscribeNotifiesOnChangeOnly(t *testing.T) {
	tr := New(Flags{})

	var got []Flags
	cancel := tr.Subscribe(func(f Flags) { got = append(got, f) })

	tr.Observe("Data")
	tr.Observe(KindCanvas3D)
	tr.Observe(KindStructure)
	tr.MarkSaved()

	require.Len(t, got, 2)
	assert.Equal(t, Flags{SaveEnabled: true}, got[0])
	assert.Equal(t, Flags{SaveEnabled: true, ResetEnabled: true}, got[1])

	cancel()
	cancel()
	tr.MarkCleared()
	assert.Len(t, got, 2)
}

func TestObserverMayReadFlags(t *testing.T) {
	tr := New(Flags{})
	var inside Flags
	tr.Subscribe(func(Flags) { inside = tr.Flags() })

	tr.Observe(KindCanvas3D)
	assert.True(t, inside.SaveEnabled)
}

func TestCloseDropsObservers(t *testing.T) {
	tr := New(Flags{})
	calls := 0
	tr.Subscribe(func(Flags) { calls++ })
	tr.Close()

	tr.Observe(KindCanvas3D)
	assert.Equal(t, 0, calls)
	assert.True(t, tr.Flags().SaveEnabled)

	tr.Subscribe(func(Flags) { calls++ })
	tr.MarkSaved()
	assert.Equal(t, 0, calls)
}

func TestConcurrentObserve(t *testing.T) {
	tr := New(Flags{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tr.Observe(KindStructure)
			} else {
				tr.Observe("Data")
			}
		}(i)
	}
	wg.Wait()
	assert.True(t, tr.Flags().SaveEnabled)
}
