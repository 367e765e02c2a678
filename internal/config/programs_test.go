package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/program"
)

func TestSubstitute(t *testing.T) {
	values := map[string]any{"user": "bob", "port": 5000}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"hi {user}", "hi bob", false},
		{"http://tv:{port}/", "http://tv:5000/", false},
		{"keys: {{F11}}", "keys: {F11}", false},
		{"{{{user}}}", "{bob}", false},
		{"{missing}", "", true},
		{"{user", "", true},
		{"a } b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Substitute(tt.in, values)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPlaceholder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const testSecrets = `
token: s3cret
secrets:
  tvtoken: abc123
  host: tv.lan
`

const testPrograms = `
endpoints:
  TV:
    url: http://{host}:5000
    token: "{tvtoken}"
  broken:
    url: http://nowhere
programs:
  Notepad:
    start:
      - method: execute
        arguments: notepad.exe
    stop:
      - method: Close Window
        arguments: [Untitled - Notepad]
        options:
          waitforit: true
          maxwait: 5
  Kodi:
    start:
      - endpoint: tv
        method: execute
        arguments: [kodi, --fullscreen]
      - method: sendkeys
        arguments: "{{F11}}"
    prestop:
      - endpoint: TV
        method: sendkeys
        arguments: "%{{F4}}"
  Included:
    include: movie.yml
    parameters:
      player: vlc
  Empty: {{}}
  Missing:
    include: nope.yml
`

const testInclude = `
start:
  - method: execute
    arguments: ["{player}"]
stop:
  - method: kill app
    arguments: "{player}"
`

func writePrograms(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "movie.yml", testInclude)
	return writeFile(t, dir, "config.yml", testPrograms), writeFile(t, dir, "secrets.yml", testSecrets)
}

func TestLoadPrograms(t *testing.T) {
	programsPath, secretsPath := writePrograms(t)
	core, logs := observer.New(zap.InfoLevel)

	defs, err := LoadPrograms(programsPath, secretsPath, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", defs.Token)
	require.Len(t, defs.Endpoints, 1)
	assert.Equal(t, EndpointDef{Name: "tv", URL: "http://tv.lan:5000", Token: "abc123"}, defs.Endpoints[0])

	names := make([]string, 0, len(defs.Programs))
	for _, p := range defs.Programs {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Notepad", "Kodi", "Included"}, names)

	notepad := defs.Programs[0]
	assert.Equal(t, []ActionDef{{Endpoint: "local", Method: "execute", Arguments: []any{"notepad.exe"}}}, notepad.Start)
	require.Len(t, notepad.Stop, 1)
	assert.Equal(t, "close window", notepad.Stop[0].Method)
	assert.Equal(t, true, notepad.Stop[0].Options["waitforit"])

	kodi := defs.Programs[1]
	assert.Equal(t, "tv", kodi.Start[0].Endpoint)
	assert.Equal(t, []any{"kodi", "--fullscreen"}, kodi.Start[0].Arguments)
	assert.Equal(t, []any{"{F11}"}, kodi.Start[1].Arguments)
	assert.Equal(t, []any{"%{F4}"}, kodi.PreStop[0].Arguments)

	included := defs.Programs[2]
	assert.Equal(t, []any{"vlc"}, included.Start[0].Arguments)
	assert.Equal(t, "kill app", included.Stop[0].Method)

	assert.Equal(t, 1, logs.FilterMessage("Endpoint is missing url, token or both").Len())
	assert.Equal(t, 1, logs.FilterMessage("Program doesn't have any defined actions").Len())
	assert.Equal(t, 1, logs.FilterMessage("Included file is missing or corrupt").Len())
}

func TestLoadPrograms_NoSecrets(t *testing.T) {
	dir := t.TempDir()
	programsPath := writeFile(t, dir, "config.yml", "programs:\n  A:\n    start:\n      - method: execute\n        arguments: a\n")

	defs, err := LoadPrograms(programsPath, filepath.Join(dir, "secrets.yml"), nil)
	require.NoError(t, err)
	assert.Empty(t, defs.Token)
	assert.Len(t, defs.Programs, 1)
}

func TestLoadPrograms_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "secrets.yml", "token: abc\n")
	defs, err := LoadPrograms(filepath.Join(dir, "config.yml"), filepath.Join(dir, "secrets.yml"), nil)
	assert.ErrorIs(t, err, ErrNoPrograms)
	require.NotNil(t, defs)
	assert.Equal(t, "abc", defs.Token)

	programsPath := writeFile(t, dir, "config.yml", "endpoints:\n  tv:\n    url: http://{unknown}\n")
	_, err = LoadPrograms(programsPath, filepath.Join(dir, "secrets.yml"), nil)
	assert.ErrorIs(t, err, ErrPlaceholder)
}

type nopEndpoint struct{ name string }

func (n nopEndpoint) Name() string                                             { return n.name }
func (nopEndpoint) Execute(context.Context, endpoint.Options, []string) int    { return 1 }
func (nopEndpoint) KillPID(context.Context, endpoint.Options, int) bool        { return true }
func (nopEndpoint) KillApp(context.Context, endpoint.Options, string) bool     { return true }
func (nopEndpoint) CloseWindow(context.Context, endpoint.Options, string) bool { return true }
func (nopEndpoint) Focus(context.Context, endpoint.Options, string) bool       { return true }
func (nopEndpoint) SendKeys(context.Context, endpoint.Options, string) bool    { return true }
func (nopEndpoint) MouseMove(context.Context, endpoint.Options, int, int) bool { return true }

func TestPrograms_Build(t *testing.T) {
	defs := &Programs{
		Endpoints: []EndpointDef{{Name: "tv", URL: "http://tv", Token: "t"}},
		Programs: []ProgramDef{
			{
				Name: "Movies",
				Start: []ActionDef{
					{Endpoint: "local", Method: "execute", Arguments: []any{"vlc"}},
					{Endpoint: "tv", Method: "focus", Arguments: []any{"Kodi"}},
					{Endpoint: "bedroom", Method: "execute", Arguments: []any{"x"}},
					{Endpoint: "local", Method: "close window", Arguments: []any{"x"}},
				},
				PreStop: []ActionDef{{Endpoint: "tv", Method: "sendkeys", Arguments: []any{"q"}}},
				Stop:    []ActionDef{{Endpoint: "local", Method: "kill app", Arguments: []any{"vlc"}}},
			},
		},
	}
	core, logs := observer.New(zap.InfoLevel)

	m := defs.Build(nopEndpoint{name: "local"}, zap.New(core), program.WithRemoteFactory(
		func(name, url, token string) endpoint.Endpoint { return nopEndpoint{name: name} },
	))

	p, ok := m.Program("movies")
	require.True(t, ok)
	assert.Len(t, p.StartActions(), 2)
	assert.Len(t, p.PreStopActions(), 1)
	assert.Len(t, p.PostStopActions(), 1)
	assert.Equal(t, "tv", p.StartActions()[1].Endpoint().Name())

	assert.Equal(t, 1, logs.FilterMessage("Endpoint isn't available").Len())
	assert.Equal(t, 1, logs.FilterMessage("Skipping action").Len())
}
