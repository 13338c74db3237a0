package scene

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdbText = `HEADER    PROTEIN
ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N
ATOM      2  CA  ALA A   1      11.639   6.071  -5.147  1.00  0.00           C
HETATM    3  O   HOH A 101       9.000   5.000  -4.000  1.00  0.00           O
END
`

const cifText = `data_1ABC
loop_
_atom_site.group_PDB
_atom_site.id
ATOM   1
ATOM   2
`

type recorder struct {
	events []viewer.ChangeEvent
}

func (r *recorder) fn(ev viewer.ChangeEvent) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []tracker.Kind {
	out := make([]tracker.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func loaded(t *testing.T, text string, format viewer.Format) *Engine {
	t.Helper()
	ctx := context.Background()
	e := New(viewer.Target{ViewID: "v"}, nil)
	ref, err := e.LoadRawData(ctx, []byte(text), "structure")
	require.NoError(t, err)
	traj, err := e.ParseTrajectory(ctx, ref, format)
	require.NoError(t, err)
	require.NoError(t, e.ApplyDefaultPreset(ctx, traj))
	return e
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		format  viewer.Format
		want    summary
		wantErr bool
	}{
		{"pdb", pdbText, viewer.FormatPDB, summary{models: 1, atoms: 2, hetAtoms: 1}, false},
		{"pdb models", "MODEL 1\nATOM\nENDMDL\nMODEL 2\nATOM\nENDMDL\n", viewer.FormatPDB, summary{models: 2, atoms: 2}, false},
		{"mmcif", cifText, viewer.FormatMMCIF, summary{models: 1, atoms: 2}, false},
		{"mmcif without header", "ATOM 1\n", viewer.FormatMMCIF, summary{}, true},
		{"no atoms", "HEADER\nEND\n", viewer.FormatPDB, summary{}, true},
		{"empty", "", viewer.FormatPDB, summary{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sniff(tt.text, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadEmitsToCurrentSubscribers(t *testing.T) {
	ctx := context.Background()
	e := New(viewer.Target{}, nil)
	rec := &recorder{}
	e.OnChange(rec.fn)

	ref, err := e.LoadRawData(ctx, []byte(pdbText), "structure.pdb")
	require.NoError(t, err)
	traj, err := e.ParseTrajectory(ctx, ref, viewer.FormatPDB)
	require.NoError(t, err)
	require.NoError(t, e.ApplyDefaultPreset(ctx, traj))

	assert.Equal(t, []tracker.Kind{
		KindData,
		KindTrajectory,
		tracker.KindStructure,
		tracker.KindRepresentation,
		tracker.KindRepresentation,
	}, rec.kinds())
}

func TestFirstSubscriberAfterPresetGetsFrame(t *testing.T) {
	e := loaded(t, pdbText, viewer.FormatPDB)

	first := &recorder{}
	e.OnChange(first.fn)
	assert.Equal(t, []tracker.Kind{tracker.KindCanvas3D}, first.kinds())

	second := &recorder{}
	e.OnChange(second.fn)
	assert.Empty(t, second.events)
}

func TestParseUnknownRef(t *testing.T) {
	e := New(viewer.Target{}, nil)
	_, err := e.ParseTrajectory(context.Background(), "missing", viewer.FormatPDB)
	assert.ErrorIs(t, err, ErrUnknownRef)

	err = e.ApplyDefaultPreset(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestLigandRepresentation(t *testing.T) {
	withLigand := loaded(t, pdbText, viewer.FormatPDB)
	assert.Len(t, withLigand.doc.Representations, 2)

	polymerOnly := loaded(t, cifText, viewer.FormatMMCIF)
	assert.Len(t, polymerOnly.doc.Representations, 1)
	assert.Equal(t, "mmcif", polymerOnly.doc.Trajectory.Format)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := loaded(t, pdbText, viewer.FormatPDB)
	e.OnChange(func(viewer.ChangeEvent) {})
	require.NoError(t, e.Mutate(ctx, viewer.ChangeEvent{Kind: tracker.KindRepresentation, Ref: "ligand"}))
	require.NoError(t, e.Mutate(ctx, viewer.ChangeEvent{Kind: "Model"}))

	before, err := e.GetSnapshot(ctx)
	require.NoError(t, err)

	rec := &recorder{}
	e.OnChange(rec.fn)
	require.NoError(t, e.SetSnapshot(ctx, before))

	after, err := e.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Empty(t, rec.events, "applying a snapshot must not emit change events")

	// A fresh engine restored from the snapshot is identical too
	other := New(viewer.Target{}, nil)
	require.NoError(t, other.SetSnapshot(ctx, before))
	restored, err := other.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(restored))
	assert.Contains(t, string(restored), "ALA")
}

func TestSetSnapshotRejectsGarbage(t *testing.T) {
	e := New(viewer.Target{}, nil)
	for _, snap := range []string{`nope`, `{}`, `{"foo":1}`, `{"version":"x"}`, `{"version":99}`} {
		assert.ErrorIs(t, e.SetSnapshot(context.Background(), types.Snapshot(snap)), viewer.ErrSnapshotInvalid, snap)
	}
}

func TestRestoredEngineHasNoPendingFrame(t *testing.T) {
	ctx := context.Background()
	snap, err := loaded(t, pdbText, viewer.FormatPDB).GetSnapshot(ctx)
	require.NoError(t, err)

	e := New(viewer.Target{}, nil)
	require.NoError(t, e.SetSnapshot(ctx, snap))

	rec := &recorder{}
	e.OnChange(rec.fn)
	assert.Empty(t, rec.events)
}

func TestMutate(t *testing.T) {
	ctx := context.Background()
	e := loaded(t, pdbText, viewer.FormatPDB)
	rec := &recorder{}
	e.OnChange(rec.fn)
	rec.events = nil

	tests := []struct {
		kind tracker.Kind
		ref  string
	}{
		{tracker.KindCanvas3D, "canvas"},
		{tracker.KindStructure, "structure"},
		{tracker.KindRepresentation, "polymer"},
		{"Volume", ""},
		{"", ""},
	}
	for _, tt := range tests {
		require.NoError(t, e.Mutate(ctx, viewer.ChangeEvent{Kind: tt.kind}))
		last := rec.events[len(rec.events)-1]
		assert.Equal(t, tt.kind, last.Kind)
		assert.Equal(t, tt.ref, last.Ref)
	}

	assert.Equal(t, 1, e.doc.Structure.Revision)
	assert.Equal(t, 1, e.doc.Representations[0].Revision)
	assert.Equal(t, 1, e.doc.Counters["Volume"])
}

func TestDispose(t *testing.T) {
	ctx := context.Background()
	e := loaded(t, pdbText, viewer.FormatPDB)
	sub := e.OnChange(func(viewer.ChangeEvent) {})
	assert.Equal(t, 1, e.Subscribers())

	assert.NotPanics(t, func() {
		e.Dispose()
		e.Dispose()
		sub.Unsubscribe()
	})
	assert.Equal(t, 0, e.Subscribers())

	_, err := e.GetSnapshot(ctx)
	assert.ErrorIs(t, err, ErrDisposed)
	_, err = e.LoadRawData(ctx, []byte(pdbText), "x")
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, e.Mutate(ctx, viewer.ChangeEvent{}), ErrDisposed)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(viewer.Target{}, nil)
	_, err := e.LoadRawData(ctx, []byte(pdbText), "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactoryStats(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	a, err := f.Create(ctx, viewer.Target{ViewID: "a"})
	require.NoError(t, err)
	_, err = f.Create(ctx, viewer.Target{ViewID: "b"})
	require.NoError(t, err)
	assert.Equal(t, Stats{Live: 2, Created: 2}, f.Stats())

	a.Dispose()
	a.Dispose()
	assert.Equal(t, Stats{Live: 1, Created: 2}, f.Stats())
}
