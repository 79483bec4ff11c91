package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-annotator/internal/annotation/models"
)

func TestImportMinimalRecord(t *testing.T) {
	data := []byte(`[{
		"room_name": "A",
		"furniture": [{"item_type": "desk", "item_code": "X", "item_positions": []}]
	}]`)

	imp := New(VariantCurrent, 100, 100)
	result, err := imp.Import(data, false)
	require.NoError(t, err)

	assert.Equal(t, "A", result.Room.RoomName)
	assert.Equal(t, []string{"X"}, result.Codes)
	assert.Empty(t, result.Duplicates)
	// Missing collections are repaired, not rejected.
	assert.NotNil(t, result.Room.Doors)
	assert.NotNil(t, result.Room.Windows)
	assert.Empty(t, result.Room.Doors)
}

func TestImportMalformedInput(t *testing.T) {
	imp := New(VariantCurrent, 100, 100)

	for name, data := range map[string]string{
		"not json":    `{{{`,
		"not array":   `{"room_name":"A"}`,
		"empty array": `[]`,
	} {
		_, err := imp.Import([]byte(data), false)
		assert.ErrorIs(t, err, models.ErrMalformedInput, name)
	}
}

func TestImportUsesFirstRecordOnly(t *testing.T) {
	data := []byte(`[
		{"room_name": "first"},
		{"room_name": "second"}
	]`)

	imp := New(VariantCurrent, 100, 100)
	result, err := imp.Import(data, false)
	require.NoError(t, err)
	assert.Equal(t, "first", result.Room.RoomName)
}

func TestImportShapeCoercion(t *testing.T) {
	imp := New(VariantCurrent, 100, 100)

	result, err := imp.Import([]byte(`[{"room_name": "A", "shape": "hexagon"}]`), false)
	require.NoError(t, err)
	assert.Equal(t, models.ShapeOther, result.Room.Shape)

	result, err = imp.Import([]byte(`[{"room_name": "A", "shape": "circle"}]`), false)
	require.NoError(t, err)
	assert.Equal(t, models.ShapeCircle, result.Room.Shape)
}

func TestImportDuplicateCodesNeedConfirmation(t *testing.T) {
	data := []byte(`[{
		"room_name": "A",
		"furniture": [
			{"item_type": "desk", "item_code": "X", "item_positions": []},
			{"item_type": "desk", "item_code": "X", "item_positions": []},
			{"item_type": "chair", "item_code": "Y", "item_positions": []}
		]
	}]`)
	imp := New(VariantCurrent, 100, 100)

	// Declined: the import aborts, the duplicates are reported.
	result, err := imp.Import(data, false)
	require.ErrorIs(t, err, models.ErrDuplicateCode)
	assert.Equal(t, []string{"X"}, result.Duplicates)

	// Confirmed: the duplicates survive in the stored record; the known
	// code set still collapses them.
	result, err = imp.Import(data, true)
	require.NoError(t, err)
	assert.Len(t, result.Room.Furniture, 3)
	assert.Equal(t, []string{"X", "Y"}, result.Codes)
	assert.Equal(t, []string{"X"}, result.Duplicates)
}

func TestImportInvalidGeometry(t *testing.T) {
	imp := New(VariantCurrent, 100, 100)

	cases := map[string]struct {
		data string
		want string
	}{
		"boundary out of range": {
			data: `[{"room_name":"A","dimensions":{"xmin":10,"ymin":10,"xmax":150,"ymax":50}}]`,
		},
		"boundary inverted": {
			data: `[{"room_name":"A","dimensions":{"xmin":60,"ymin":10,"xmax":20,"ymax":50}}]`,
		},
		"door out of range": {
			data: `[{"room_name":"A","doors":[{"x":40,"y":30},{"x":400,"y":30}]}]`,
			want: "door position 1",
		},
		"non-integer position": {
			data: `[{"room_name":"A","windows":[{"x":1.5,"y":2}]}]`,
			want: "window position 0",
		},
		"furniture position out of range": {
			data: `[{"room_name":"A","furniture":[{"item_code":"X","item_positions":[{"x":-3,"y":2}]}]}]`,
			want: "furniture X position 0",
		},
	}
	for name, tc := range cases {
		_, err := imp.Import([]byte(tc.data), false)
		require.ErrorIs(t, err, models.ErrInvalidGeometry, name)
		if tc.want != "" {
			assert.Contains(t, err.Error(), tc.want, name)
		}
	}
}

func TestImportFallsBackToRecordImageDims(t *testing.T) {
	// No reference image loaded: the record's own image metadata bounds
	// the geometry instead.
	data := []byte(`[{
		"room_name": "A",
		"doors": [{"x": 400, "y": 300}],
		"image": {"filename": "plan.png", "width": 800, "height": 600}
	}]`)

	imp := New(VariantCurrent, 0, 0)
	_, err := imp.Import(data, false)
	require.NoError(t, err)

	// With a loaded image the session dimensions win.
	imp = New(VariantCurrent, 100, 100)
	_, err = imp.Import(data, false)
	require.ErrorIs(t, err, models.ErrInvalidGeometry)
}

func TestImportMissingFurnitureCode(t *testing.T) {
	imp := New(VariantCurrent, 100, 100)
	_, err := imp.Import([]byte(`[{"room_name":"A","furniture":[{"item_type":"desk","item_positions":[]}]}]`), false)
	require.ErrorIs(t, err, models.ErrMalformedInput)
}

// ============================================================
// Legacy variant
// ============================================================

func TestImportLegacyMigration(t *testing.T) {
	data := []byte(`[{
		"room_name": "B",
		"doors": {"quantity": 1, "positions": [[5, 6]]},
		"windows": {"quantity": 0, "positions": []},
		"furniture": [
			{"item_type": "desk", "item_code": "D1", "item_quantity": 2, "item_positions": [[1, 2], [3, 4]]}
		]
	}]`)

	imp := New(VariantLegacy, 100, 100)
	result, err := imp.Import(data, false)
	require.NoError(t, err)

	assert.Equal(t, []models.Point{{X: 5, Y: 6}}, result.Room.Doors)
	assert.Equal(t, []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, result.Room.Furniture[0].ItemPositions)
	assert.Equal(t, []string{"D1"}, result.Codes)
}

func TestImportLegacyQuantityMismatch(t *testing.T) {
	data := []byte(`[{
		"room_name": "B",
		"furniture": [
			{"item_type": "desk", "item_code": "D1", "item_quantity": 3, "item_positions": [[1, 2], [3, 4]]}
		]
	}]`)

	imp := New(VariantLegacy, 100, 100)
	_, err := imp.Import(data, false)
	require.ErrorIs(t, err, models.ErrQuantityMismatch)
	assert.Contains(t, err.Error(), "D1")
}

func TestImportLegacyBadTuple(t *testing.T) {
	data := []byte(`[{
		"room_name": "B",
		"doors": {"quantity": 1, "positions": [[5]]}
	}]`)

	imp := New(VariantLegacy, 100, 100)
	_, err := imp.Import(data, false)
	require.ErrorIs(t, err, models.ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "door position 0")
}

func TestCurrentVariantIgnoresQuantityCounters(t *testing.T) {
	// The current schema derives counts from the arrays; a stray counter
	// is not checked.
	data := []byte(`[{
		"room_name": "A",
		"furniture": [{"item_type": "desk", "item_code": "X", "item_quantity": 9, "item_positions": []}]
	}]`)

	imp := New(VariantCurrent, 100, 100)
	_, err := imp.Import(data, false)
	require.NoError(t, err)
}

func TestImportIdempotence(t *testing.T) {
	data := []byte(`[{
		"room_name": "A",
		"purpose": "classroom",
		"shape": "rectangle",
		"dimensions": {"xmin": 10, "ymin": 10, "xmax": 60, "ymax": 90},
		"doors": [{"x": 40, "y": 30, "orientation": 90}],
		"windows": [{"x": 12, "y": 80, "orientation": 0}],
		"school_type": "elementary",
		"student_num": 30,
		"furniture": [{"item_type": "desk", "item_code": "X", "item_positions": [{"x": 20, "y": 20, "orientation": 0}]}]
	}]`)

	imp := New(VariantCurrent, 100, 100)
	first, err := imp.Import(data, false)
	require.NoError(t, err)

	// Re-serializing and importing again yields the same geometry.
	again, err := json.Marshal([]models.Room{first.Room})
	require.NoError(t, err)
	second, err := imp.Import(again, false)
	require.NoError(t, err)

	assert.Equal(t, first.Room.Shape, second.Room.Shape)
	assert.Equal(t, first.Room.Dimensions, second.Room.Dimensions)
	assert.Equal(t, first.Room.Doors, second.Room.Doors)
	assert.Equal(t, first.Room.Windows, second.Room.Windows)
	assert.Equal(t, first.Room.Furniture, second.Room.Furniture)
}
