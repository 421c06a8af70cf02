package pathmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/screenwerk/screensync/pkg/config"
	"github.com/screenwerk/screensync/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *profile.Table {
	t.Helper()
	table, err := profile.NewTable([]config.Screen{
		{
			Name: "256", Resolution: []int{256, 256},
			Search: "_LED_", Target: "_LED256_",
			HScale: 1, VScale: 1, Player: []int{256, 256}, Align: config.AlignCenter,
		},
		{
			Name: "512", Resolution: []int{512, 512},
			Search: "_LED_", Target: "_LED512_",
			HScale: 1, VScale: 1, Player: []int{512, 512}, Align: config.AlignCenter,
		},
	})
	require.NoError(t, err, "building table")
	return table
}

func TestReplaceFirstFold(t *testing.T) {
	tests := []struct {
		name string
		s    string
		old  string
		new  string
		want string
	}{
		{name: "simple", s: "clip_LED_1.mp4", old: "_LED_", new: "_LED256_", want: "clip_LED256_1.mp4"},
		{name: "case_insensitive", s: "clip_led_1.mp4", old: "_LED_", new: "_LED256_", want: "clip_LED256_1.mp4"},
		{name: "first_occurrence_only", s: "a_LED_b_LED_c", old: "_LED_", new: "_X_", want: "a_X_b_LED_c"},
		{name: "no_occurrence", s: "clip.mp4", old: "_LED_", new: "_X_", want: "clip.mp4"},
		{name: "empty_old", s: "clip.mp4", old: "", new: "_X_", want: "clip.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplaceFirstFold(tt.s, tt.old, tt.new), "replacement should match")
		})
	}
}

func TestDestinationRel(t *testing.T) {
	table := testTable(t)
	p256, _ := table.Get("256")

	tests := []struct {
		name string
		rel  string
		want string
	}{
		{name: "flat", rel: "clip_LED_1.mp4", want: "clip_LED256_1.mp4"},
		{name: "nested_dirs_preserved", rel: filepath.Join("shows", "summer", "clip_LED_1.mp4"), want: filepath.Join("shows", "summer", "clip_LED256_1.mp4")},
		{name: "token_in_dir_untouched", rel: filepath.Join("all_LED_clips", "clip_LED_1.mp4"), want: filepath.Join("all_LED_clips", "clip_LED256_1.mp4")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DestinationRel(tt.rel, p256)
			assert.Equal(t, tt.want, got, "mapping should match")

			// Pure function: same inputs, same output.
			assert.Equal(t, got, DestinationRel(tt.rel, p256), "mapping must be deterministic")
		})
	}
}

func TestSourceCandidate(t *testing.T) {
	table := testTable(t)
	src := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "shows"), 0o755), "creating source dirs")
	for _, name := range []string{
		filepath.Join("shows", "clip_LED_1.mp4"),
		"plain.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644), "seeding source")
	}

	tests := []struct {
		name     string
		destRel  string
		wantRel  string
		wantOrig bool
	}{
		{
			name:     "token_inverse_resolves",
			destRel:  filepath.Join("shows", "clip_LED256_1.mp4"),
			wantRel:  filepath.Join("shows", "clip_LED_1.mp4"),
			wantOrig: true,
		},
		{
			name:     "second_profile_token",
			destRel:  filepath.Join("shows", "clip_LED512_1.mp4"),
			wantRel:  filepath.Join("shows", "clip_LED_1.mp4"),
			wantOrig: true,
		},
		{
			name:     "identity_for_plain_copy",
			destRel:  "plain.txt",
			wantRel:  "plain.txt",
			wantOrig: true,
		},
		{
			name:     "orphan_after_source_delete",
			destRel:  filepath.Join("shows", "gone_LED256_2.mp4"),
			wantOrig: false,
		},
		{
			name:     "orphan_plain",
			destRel:  "missing.txt",
			wantOrig: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := SourceCandidate(src, tt.destRel, table)
			assert.Equal(t, tt.wantOrig, ok, "origin resolution should match")
			if tt.wantOrig {
				assert.Equal(t, tt.wantRel, rel, "resolved origin should match")
			}
		})
	}
}

func TestConvertedOrigin(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "intro.mov"), []byte("x"), 0o644), "seeding source")

	rel, ok := ConvertedOrigin(src, "intro.mp4", ".mp4")
	require.True(t, ok, "converted file should resolve by stem")
	assert.Equal(t, "intro.mov", rel, "origin should be the source extension variant")

	_, ok = ConvertedOrigin(src, "outro.mp4", ".mp4")
	assert.False(t, ok, "missing stem should not resolve")

	_, ok = ConvertedOrigin(src, "intro.avi", ".mp4")
	assert.False(t, ok, "only managed-extension files qualify")
}
