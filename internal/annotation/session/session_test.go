package session

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-annotator/internal/annotation/models"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewManager().Create()
}

// seeded returns a session that already has a room, created the same way
// the editor does it: through the first furniture action.
func seeded(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t)
	require.NoError(t, s.AddFurniture("desk", "X"))
	return s
}

func TestClickPlacesDoorPoint(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetDoor}))

	require.NoError(t, s.Click(40, 30))

	state := s.Snapshot()
	require.Len(t, state.Rooms, 1)
	require.Len(t, state.Rooms[0].Doors, 1)
	assert.Equal(t, models.Point{X: 40, Y: 30, Orientation: 0}, state.Rooms[0].Doors[0])
	// Still armed: a second click places a second door.
	require.NoError(t, s.Click(10, 10))
	assert.Len(t, s.Snapshot().Rooms[0].Doors, 2)
}

func TestClickUnzoomsPointer(t *testing.T) {
	s := seeded(t)
	s.SetZoom(2.0)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetWindow}))

	require.NoError(t, s.Click(80, 61))

	win := s.Snapshot().Rooms[0].Windows
	require.Len(t, win, 1)
	assert.Equal(t, models.Point{X: 40, Y: 31}, win[0])
}

func TestClickWithoutModeIsIgnored(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.Click(40, 30))
	assert.Empty(t, s.Snapshot().Rooms[0].Doors)
}

func TestBoundaryDrag(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))

	s.PointerDown(60, 110)
	s.PointerMove(30, 50)
	s.PointerMove(10, 10)
	require.True(t, s.PointerUp())

	// Dragged from the bottom-right corner; the box is still normalized.
	box := s.Snapshot().Rooms[0].Dimensions
	require.NotNil(t, box)
	assert.Equal(t, models.BoundingBox{Xmin: 10, Ymin: 10, Xmax: 60, Ymax: 110}, *box)
}

func TestPointerUpWithoutDownIsNoop(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))

	assert.False(t, s.PointerUp())
	assert.Nil(t, s.Snapshot().Rooms[0].Dimensions)
	// The machine stays in boundary mode and can still draw.
	assert.Equal(t, ModeDrawBoundary, s.Snapshot().Mode)

	s.PointerDown(0, 0)
	s.PointerMove(50, 50)
	require.True(t, s.PointerUp())
	require.NotNil(t, s.Snapshot().Rooms[0].Dimensions)
}

func TestPointerMoveDoesNotCommit(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))

	s.PointerDown(0, 0)
	s.PointerMove(50, 50)
	assert.Nil(t, s.Snapshot().Rooms[0].Dimensions)
}

func TestFinishBoundaryReturnsToIdle(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))
	s.PointerDown(0, 0)
	s.PointerMove(20, 20)
	require.True(t, s.PointerUp())

	s.FinishBoundary()
	state := s.Snapshot()
	assert.Equal(t, ModeNone, state.Mode)
	assert.Equal(t, TargetNone, state.Target.Kind)
}

func TestSelectRoomReentryKeepsDrag(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))
	s.PointerDown(0, 0)

	// Re-selecting the room mid-drag must not cancel the drag.
	require.NoError(t, s.SelectTarget(Target{Kind: TargetRoom}))
	s.PointerMove(30, 30)
	assert.True(t, s.PointerUp())
}

func TestSelectStaleFurnitureTarget(t *testing.T) {
	s := seeded(t)
	err := s.SelectTarget(Target{Kind: TargetFurniture, Code: "gone"})
	require.ErrorIs(t, err, models.ErrStaleTarget)
	assert.Equal(t, ModePoint, s.Snapshot().Mode)
	assert.Equal(t, "X", s.Snapshot().Target.Code)
}

func TestClickStaleFurnitureDoesNotMutate(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.Click(1, 1))
	require.NoError(t, s.RemoveFurniture("X"))

	// The removal cleared the selection, so the click is just ignored.
	require.NoError(t, s.Click(2, 2))
	assert.Empty(t, s.Snapshot().Rooms[0].Furniture)
}

func TestAddFurnitureArmsPlacement(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.AddFurniture("desk", "X"))

	state := s.Snapshot()
	require.Len(t, state.Rooms, 1)
	assert.Equal(t, "New Room", state.Rooms[0].RoomName)
	assert.Equal(t, ModePoint, state.Mode)
	assert.Equal(t, Target{Kind: TargetFurniture, Code: "X"}, state.Target)
	assert.Equal(t, []string{"X"}, state.FurnitureList)

	require.NoError(t, s.Click(5, 6))
	assert.Equal(t, models.Point{X: 5, Y: 6}, s.Snapshot().Rooms[0].Furniture[0].ItemPositions[0])
}

func TestAddFurnitureRejectsKnownCode(t *testing.T) {
	s := seeded(t)
	err := s.AddFurniture("chair", "X")
	require.ErrorIs(t, err, models.ErrDuplicateCode)
	assert.Len(t, s.Snapshot().Rooms[0].Furniture, 1)
}

func TestRenameFurnitureTracksSelection(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.RenameFurniture(0, "table", "Y"))

	state := s.Snapshot()
	assert.Equal(t, "Y", state.Rooms[0].Furniture[0].ItemCode)
	assert.Equal(t, []string{"Y"}, state.FurnitureList)
	assert.Equal(t, "Y", state.Target.Code)

	require.NoError(t, s.Click(3, 3))
	assert.Len(t, s.Snapshot().Rooms[0].Furniture[0].ItemPositions, 1)
}

func TestRenameFurnitureToOwnCode(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.RenameFurniture(0, "table", "X"))
	assert.Equal(t, "table", s.Snapshot().Rooms[0].Furniture[0].ItemType)
}

func TestRemoveFurnitureClearsSelection(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.RemoveFurniture("X"))

	state := s.Snapshot()
	assert.Empty(t, state.Rooms[0].Furniture)
	assert.Empty(t, state.FurnitureList)
	assert.Equal(t, ModeNone, state.Mode)
	assert.Equal(t, TargetNone, state.Target.Kind)
}

func TestApplyImportReplacesKnownCodes(t *testing.T) {
	s := seeded(t)
	imported := models.Room{RoomName: "Lab", Furniture: []models.FurnitureItem{{ItemCode: "Z"}}}
	s.ApplyImport(imported, []string{"Z"})

	state := s.Snapshot()
	assert.Equal(t, "Lab", state.Rooms[0].RoomName)
	assert.Equal(t, []string{"Z"}, state.FurnitureList)

	// The old code is free again after the replacement.
	require.NoError(t, s.AddFurniture("desk", "X"))
}

func TestSnapshotIsDetached(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.Click(1, 1))

	before := s.Snapshot()
	require.NoError(t, s.Click(2, 2))

	assert.Len(t, before.Rooms[0].Furniture[0].ItemPositions, 1)
	assert.Len(t, s.Snapshot().Rooms[0].Furniture[0].ItemPositions, 2)
}

func TestSetZoomClamps(t *testing.T) {
	s := newTestSession(t)
	s.SetZoom(9.0)
	assert.Equal(t, 2.0, s.Snapshot().Scale)
	s.SetZoom(0.1)
	assert.Equal(t, 0.5, s.Snapshot().Scale)
}

// ============================================================
// Images
// ============================================================

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterImages(t *testing.T) {
	s := newTestSession(t)
	err := s.RegisterImages([]ImageFile{
		{Name: "a.png", Data: pngBytes(t, 120, 80)},
		{Name: "b.png", Data: pngBytes(t, 64, 64)},
	})
	require.NoError(t, err)

	info, ok := s.CurrentImage()
	require.True(t, ok)
	assert.Equal(t, models.ImageInfo{Filename: "a.png", Width: 120, Height: 80}, info)

	s.NextImage()
	info, _ = s.CurrentImage()
	assert.Equal(t, "b.png", info.Filename)
	s.NextImage()
	info, _ = s.CurrentImage()
	assert.Equal(t, "a.png", info.Filename)
	s.PrevImage()
	info, _ = s.CurrentImage()
	assert.Equal(t, "b.png", info.Filename)
}

func TestRegisterImagesAllOrNothing(t *testing.T) {
	s := newTestSession(t)
	err := s.RegisterImages([]ImageFile{
		{Name: "good.png", Data: pngBytes(t, 10, 10)},
		{Name: "bad.png", Data: []byte("not an image")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")

	_, ok := s.CurrentImage()
	assert.False(t, ok)
}

func TestRegisterImagesEmpty(t *testing.T) {
	s := newTestSession(t)
	require.Error(t, s.RegisterImages(nil))
}

func TestCommitImagesRejectsStaleGeneration(t *testing.T) {
	s := newTestSession(t)

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	s.Reset()

	ok := s.commitImages(gen, []models.ImageInfo{{Filename: "late.png", Width: 1, Height: 1}})
	assert.False(t, ok)
	_, loaded := s.CurrentImage()
	assert.False(t, loaded)
}

func TestResetClearsEverything(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.RegisterImages([]ImageFile{{Name: "a.png", Data: pngBytes(t, 5, 5)}}))
	s.SetZoom(1.5)

	s.Reset()

	state := s.Snapshot()
	assert.Empty(t, state.Rooms)
	assert.Empty(t, state.FurnitureList)
	assert.Empty(t, state.Images)
	assert.Equal(t, 1.0, state.Scale)
	assert.Equal(t, ModeNone, state.Mode)
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	s := m.Create()
	require.NotEmpty(t, s.Token())

	got, ok := m.Get(s.Token())
	require.True(t, ok)
	assert.Same(t, s, got)

	m.Remove(s.Token())
	_, ok = m.Get(s.Token())
	assert.False(t, ok)
}
