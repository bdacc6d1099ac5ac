package query

import (
	"testing"

	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func TestParseGroup(t *testing.T) {
	spec, err := ParseGroup([]string{"site", "", "_sat", "id.site", "val.flag"})
	require.NoError(t, err)
	require.Equal(t, GroupSpec{
		fieldpath.IdentityPath("site"),
		fieldpath.IdentityPath("sat"),
		fieldpath.PlainPath("val.flag"),
	}, spec)
	require.Equal(t, []string{"site", "sat", "val.flag"}, spec.Names())

	_, err = ParseGroup([]string{"_"})
	require.Error(t, err)
}

func TestParseMatch(t *testing.T) {
	spec, err := ParseMatch(map[string]string{
		"site": `"ALIC"`,
		"sat":  "G01",
		"prn":  "3",
		"ok":   "true",
		"recv": "",
	})
	require.NoError(t, err)
	require.Equal(t, MatchSpec{
		{Path: fieldpath.IdentityPath("ok"), Value: true},
		{Path: fieldpath.IdentityPath("prn"), Value: 3.0},
		{Path: fieldpath.IdentityPath("sat"), Value: "G01"},
		{Path: fieldpath.IdentityPath("site"), Value: "ALIC"},
	}, spec)
}

func TestParseLiteral(t *testing.T) {
	require.Equal(t, "ALIC", ParseLiteral("ALIC"))
	require.Equal(t, "ALIC", ParseLiteral(`"ALIC"`))
	require.Equal(t, 1.5, ParseLiteral("1.5"))
	require.Equal(t, false, ParseLiteral("false"))
	require.Equal(t, "null", ParseLiteral("null"))
	require.Equal(t, `{"a":1}`, ParseLiteral(`{"a":1}`))
}

func TestBuild(t *testing.T) {
	match := MatchSpec{{Path: fieldpath.IdentityPath("site"), Value: "ALIC"}}
	group := GroupSpec{fieldpath.IdentityPath("site")}

	tests := []struct {
		name        string
		group       GroupSpec
		x           fieldpath.FieldPath
		y           fieldpath.FieldPath
		wantKey     []fieldpath.FieldPath
		wantCollect []string
	}{
		{
			name:    "identity x extends key",
			group:   group,
			x:       fieldpath.IdentityPath("time"),
			wantKey: []fieldpath.FieldPath{fieldpath.IdentityPath("site"), fieldpath.IdentityPath("time")},
		},
		{
			name:    "grouped identity x not repeated",
			group:   GroupSpec{fieldpath.IdentityPath("time"), fieldpath.IdentityPath("site")},
			x:       fieldpath.IdentityPath("time"),
			wantKey: []fieldpath.FieldPath{fieldpath.IdentityPath("time"), fieldpath.IdentityPath("site")},
		},
		{
			name:        "plain x collected",
			group:       group,
			x:           fieldpath.PlainPath("elevation"),
			wantKey:     []fieldpath.FieldPath{fieldpath.IdentityPath("site")},
			wantCollect: []string{"elevation"},
		},
		{
			name:        "plain y collected after x",
			group:       group,
			x:           fieldpath.PlainPath("elevation"),
			y:           fieldpath.PlainPath("azimuth"),
			wantKey:     []fieldpath.FieldPath{fieldpath.IdentityPath("site")},
			wantCollect: []string{"elevation", "azimuth"},
		},
		{
			name:        "same plain field on both axes collected once",
			group:       group,
			x:           fieldpath.PlainPath("elevation"),
			y:           fieldpath.PlainPath("elevation"),
			wantKey:     []fieldpath.FieldPath{fieldpath.IdentityPath("site")},
			wantCollect: []string{"elevation"},
		},
		{
			name:    "identity y extends key",
			group:   group,
			x:       fieldpath.IdentityPath("time"),
			y:       fieldpath.IdentityPath("sat"),
			wantKey: []fieldpath.FieldPath{fieldpath.IdentityPath("site"), fieldpath.IdentityPath("time"), fieldpath.IdentityPath("sat")},
		},
		{
			name:    "grouped identity y not repeated",
			group:   GroupSpec{fieldpath.IdentityPath("sat")},
			x:       fieldpath.IdentityPath("sat"),
			y:       fieldpath.IdentityPath("sat"),
			wantKey: []fieldpath.FieldPath{fieldpath.IdentityPath("sat")},
		},
		{
			name:    "x of y is not collected twice",
			group:   nil,
			x:       fieldpath.PlainPath(storage.CollectedY),
			wantKey: []fieldpath.FieldPath{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := Build("Trace", match, tc.group, Target{Value: "residual", X: tc.x, Y: tc.y})
			require.Equal(t, "Trace", req.Collection)
			require.Equal(t, "residual", req.Target)
			require.Equal(t, []storage.Match(match), req.Match)
			require.Equal(t, tc.wantKey, req.Key)
			require.Equal(t, tc.wantCollect, req.Collect)
		})
	}
}
