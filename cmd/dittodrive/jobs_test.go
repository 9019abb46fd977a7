package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/filemanager"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    metadata.Path
		wantErr bool
	}{
		{
			name: "folder",
			arg:  "docs:root",
			want: metadata.NewFolderPath(metadata.NewReference("docs", "root")),
		},
		{
			name: "file in folder",
			arg:  "docs:root/readme",
			want: metadata.NewFilePath(metadata.NewReference("docs", "root"), metadata.NewReference("docs", "readme")),
		},
		{
			name: "file everywhere",
			arg:  "docs:/readme",
			want: metadata.Path{File: metadata.NewReference("docs", "readme")},
		},
		{name: "missing drive", arg: ":root", wantErr: true},
		{name: "no separator", arg: "root", wantErr: true},
		{name: "empty path", arg: "docs:", wantErr: true},
		{name: "empty path with slash", arg: "docs:/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePathArg(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathArgs_StopsAtFirstError(t *testing.T) {
	_, err := parsePathArgs([]string{"docs:root", "bad"})
	assert.Error(t, err)

	paths, err := parsePathArgs([]string{"docs:a", "docs:b/c"})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		reply string
		want  filemanager.OverwriteAnswer
		ok    bool
	}{
		{reply: "\n", want: filemanager.DefaultOverwriteAnswer(), ok: true},
		{reply: "y\n", want: filemanager.OverwriteAnswer{Overwrite: true, AskAgain: true}, ok: true},
		{reply: "No", want: filemanager.OverwriteAnswer{Overwrite: false, AskAgain: true}, ok: true},
		{reply: "a", want: filemanager.OverwriteAnswer{Overwrite: true, AskAgain: false}, ok: true},
		{reply: " s ", want: filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}, ok: true},
		{reply: "maybe", ok: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.reply), func(t *testing.T) {
			got, ok := parseAnswer(tt.reply)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPrompter_Ask(t *testing.T) {
	question := filemanager.OverwriteQuestion{
		Source:      metadata.NewReference("docs", "new"),
		Destination: metadata.NewReference("docs", "old"),
	}

	t.Run("retries on invalid reply", func(t *testing.T) {
		var out bytes.Buffer
		p := &prompter{policy: overwriteAsk, in: bufio.NewReader(strings.NewReader("what\nn\n")), out: &out}

		assert.Equal(t, filemanager.OverwriteAnswer{Overwrite: false, AskAgain: true}, p.ask(question))
		assert.Equal(t, 2, strings.Count(out.String(), "Overwrite docs:old"))
	})

	t.Run("closed input keeps existing files", func(t *testing.T) {
		p := &prompter{policy: overwriteAsk, in: bufio.NewReader(strings.NewReader("")), out: &bytes.Buffer{}}

		assert.Equal(t, filemanager.OverwriteAnswer{Overwrite: false, AskAgain: false}, p.ask(question))
	})

	t.Run("last line without newline", func(t *testing.T) {
		p := &prompter{policy: overwriteAsk, in: bufio.NewReader(strings.NewReader("a")), out: &bytes.Buffer{}}

		assert.Equal(t, filemanager.OverwriteAnswer{Overwrite: true, AskAgain: false}, p.ask(question))
	})

	t.Run("policies do not read input", func(t *testing.T) {
		always := &prompter{policy: overwriteAlways}
		never := &prompter{policy: overwriteNever}

		assert.Equal(t, filemanager.OverwriteAnswer{Overwrite: true}, always.ask(question))
		assert.Equal(t, filemanager.OverwriteAnswer{Overwrite: false}, never.ask(question))
	})
}
