package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer) []Event {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	// When: one event is added
	d.Add(Event{Path: "/src/a.jar", Operation: OpCreate})

	// Then: it is emitted after the window
	batch := receive(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "/src/a.jar", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name   string
		ops    []Operation
		want   Operation
		cancel bool
	}{
		{"create then modify", []Operation{OpCreate, OpModify}, OpCreate, false},
		{"modify repeated", []Operation{OpModify, OpModify, OpModify}, OpModify, false},
		{"modify then delete", []Operation{OpModify, OpDelete}, OpDelete, false},
		{"delete then create", []Operation{OpDelete, OpCreate}, OpModify, false},
		{"create then delete", []Operation{OpCreate, OpDelete}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(30*time.Millisecond, nil)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(Event{Path: "/src/A.class", Operation: op})
			}
			// A second path guarantees a batch is emitted even when the first cancels out.
			d.Add(Event{Path: "/src/Z.class", Operation: OpModify})

			batch := receive(t, d)
			if tt.cancel {
				require.Len(t, batch, 1)
				assert.Equal(t, "/src/Z.class", batch[0].Path)
				return
			}
			require.Len(t, batch, 2)
			assert.Equal(t, "/src/A.class", batch[0].Path)
			assert.Equal(t, tt.want, batch[0].Operation)
		})
	}
}

func TestDebouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, nil)
	defer d.Stop()

	d.Add(Event{Path: "/c", Operation: OpModify})
	d.Add(Event{Path: "/a", Operation: OpModify})
	d.Add(Event{Path: "/b", Operation: OpModify})

	batch := receive(t, d)
	require.Len(t, batch, 3)
	assert.Equal(t, []string{"/a", "/b", "/c"}, []string{batch[0].Path, batch[1].Path, batch[2].Path})
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)
	d.Add(Event{Path: "/a", Operation: OpModify})

	d.Stop()
	d.Stop()
	d.Add(Event{Path: "/b", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
