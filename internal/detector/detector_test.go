package detector

import (
	"testing"

	"github.com/Rana718/quarry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func songsTable() types.SchemaTable {
	return types.SchemaTable{
		Name: "songs",
		Columns: []types.SchemaColumn{
			{Name: "id", Type: types.TypeBigInteger, IsPrimary: true, IsAutoIncrement: true},
			{Name: "title", Type: types.TypeString, Length: 255},
			{Name: "duration", Type: types.TypeInteger},
			{Name: "user_id", Type: types.TypeBigInteger, Unsigned: true},
			{Name: "secret", Type: types.TypeString},
			{Name: "created_at", Type: types.TypeTimestamp, Nullable: true},
			{Name: "updated_at", Type: types.TypeTimestamp, Nullable: true},
		},
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name            string
		in              Input
		wantNames       []string
		wantSubstituted []string
	}{
		{
			name:      "intersection in declaration order",
			in:        Input{Fillable: []string{"user_id", "title"}},
			wantNames: []string{"id", "title", "user_id"},
		},
		{
			name:      "timestamps forced when enabled",
			in:        Input{Fillable: []string{"title"}, Timestamps: true},
			wantNames: []string{"id", "title", "created_at", "updated_at"},
		},
		{
			name:            "missing allow-listed field is tolerated",
			in:              Input{Fillable: []string{"title", "genre"}},
			wantNames:       []string{"id", "title", "genre"},
			wantSubstituted: []string{"genre"},
		},
		{
			name:            "missing primary key gets a default",
			in:              Input{Fillable: []string{"title"}, PrimaryKey: "song_id"},
			wantNames:       []string{"song_id", "title"},
			wantSubstituted: []string{"song_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Detect(tt.in, songsTable())
			assert.Equal(t, tt.wantNames, res.Names())
			assert.Equal(t, tt.wantSubstituted, res.Substituted)
			assert.Equal(t, "songs", res.Table)
		})
	}
}

func TestDetectAlwaysIncludesPrimaryKey(t *testing.T) {
	res := Detect(Input{}, songsTable())
	require.Len(t, res.Columns, 1)
	assert.Equal(t, "id", res.PrimaryKey)
	assert.True(t, res.Columns[0].IsPrimary)
}

func TestPermissiveColumn(t *testing.T) {
	res := Detect(Input{Fillable: []string{"genre"}}, songsTable())
	col, ok := res.Column("genre")
	require.True(t, ok)
	assert.Equal(t, types.TypeString, col.Type)
	assert.True(t, col.Nullable)

	pk, ok := Detect(Input{PrimaryKey: "uid"}, types.SchemaTable{Name: "x"}).Column("uid")
	require.True(t, ok)
	assert.True(t, pk.IsAutoIncrement)
}
