package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    FieldPath
		wantErr bool
	}{
		{raw: "_time", want: FieldPath{Name: "time", Scope: Identity}},
		{raw: "y", want: FieldPath{Name: "y", Scope: Plain}},
		{raw: "  _sat ", want: FieldPath{Name: "sat", Scope: Identity}},
		{raw: "val.x", want: FieldPath{Name: "val.x", Scope: Plain}},
		{raw: "", wantErr: true},
		{raw: "_", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := Parse(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldPath
	}{
		{raw: "site", want: IdentityPath("site")},
		{raw: "_site", want: IdentityPath("site")},
		{raw: "id.site", want: IdentityPath("site")},
		{raw: "val.x", want: PlainPath("val.x")},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseKey(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := ParseKey(" ")
	require.Error(t, err)
	_, err = ParseKey("_")
	require.Error(t, err)
}

func TestFieldPath_String(t *testing.T) {
	assert.Equal(t, "_time", IdentityPath("time").String())
	assert.Equal(t, "y", PlainPath("y").String())
}

func TestResolve(t *testing.T) {
	bucket := map[string]any{
		"_id": map[string]any{"site": "ALIC", "time": "2024-01-01T00:00:00Z"},
		"y":   []any{1.5},
		"nested": map[string]any{
			"inner": 7.0,
		},
	}

	v, ok := Resolve(bucket, IdentityPath("site"))
	require.True(t, ok)
	require.Equal(t, "ALIC", v)

	v, ok = Resolve(bucket, PlainPath("y"))
	require.True(t, ok)
	require.Equal(t, []any{1.5}, v)

	v, ok = Resolve(bucket, PlainPath("nested.inner"))
	require.True(t, ok)
	require.Equal(t, 7.0, v)

	_, ok = Resolve(bucket, IdentityPath("sat"))
	require.False(t, ok)

	_, ok = Resolve(bucket, PlainPath("y.inner"))
	require.False(t, ok, "lists are not walked into")
}

func TestResolveStored(t *testing.T) {
	doc := map[string]any{
		"id":  map[string]any{"site": "YAR2"},
		"val": map[string]any{"x": 3.0},
	}

	v, ok := ResolveStored(doc, IdentityPath("site"))
	require.True(t, ok)
	require.Equal(t, "YAR2", v)

	v, ok = ResolveStored(doc, PlainPath("val.x"))
	require.True(t, ok)
	require.Equal(t, 3.0, v)

	_, ok = ResolveStored(doc, PlainPath("site"))
	require.False(t, ok)
}

func TestFirst(t *testing.T) {
	v, ok := First([]any{2.0, 3.0})
	require.True(t, ok)
	require.Equal(t, 2.0, v)

	v, ok = First("plain")
	require.True(t, ok)
	require.Equal(t, "plain", v)

	_, ok = First([]any{})
	require.False(t, ok)

	_, ok = First([]any{nil})
	require.False(t, ok)

	_, ok = First(nil)
	require.False(t, ok)
}

func TestIsScalar(t *testing.T) {
	assert.True(t, IsScalar(1.0))
	assert.True(t, IsScalar("a"))
	assert.True(t, IsScalar(nil))
	assert.False(t, IsScalar([]any{1.0}))
	assert.False(t, IsScalar(map[string]any{}))
}
