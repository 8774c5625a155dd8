package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/srv/data", "/srv/data"},
		{"single trailing slash", "/srv/data/", "/srv/data"},
		{"multiple trailing slashes", "/srv/data///", "/srv/data"},
		{"root path", "/", "/"},
		{"relative path", "data", "data"},
		{"relative with slash", "data/", "data"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_ViewBinding(t *testing.T) {
	tests := []struct {
		name    string
		binding ViewBinding
		wantErr bool
	}{
		{"first-file is valid", ViewBindFirstFile, false},
		{"glob is valid", ViewBindGlob, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "union", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ViewBinding = tt.binding
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ChunkSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"default", DefaultChunkSize, false},
		{"one row", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ChunkSize = tt.size
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FetchRequirementsSkippedWithSkipFetch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DescriptorURL = ""
	cfg.TorrentClient = nil
	assert.Error(t, cfg.Validate())

	cfg.SkipFetch = true
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_Layout(t *testing.T) {
	cfg := DefaultConfig()
	l := cfg.Layout()

	assert.Equal(t, filepath.Join("data", "elasticsearch"), l.ArtifactDir)
	assert.Equal(t, filepath.Join("data", "json"), l.DocumentDir)
	assert.Equal(t, filepath.Join("data", "parquet"), l.ColumnarDir)
	assert.Equal(t, filepath.Join("data", "metadata.db"), l.CatalogPath)
	assert.Equal(t, filepath.Join("data", "temp"), l.StagingDir)
	assert.Equal(t, []string{l.ArtifactDir, l.DocumentDir, l.ColumnarDir}, l.Dirs())
	assert.Equal(t, 100000, cfg.ChunkSize)
	assert.Equal(t, ViewBindFirstFile, cfg.ViewBinding)
}

func TestJournalPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("data", "journal.db"), cfg.Journal())

	cfg.JournalPath = "-"
	assert.Equal(t, "", cfg.Journal())

	cfg.JournalPath = "/var/lib/metamirror/runs.db"
	assert.Equal(t, "/var/lib/metamirror/runs.db", cfg.Journal())
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metamirror.toml")
	content := `
data_dir = "/srv/mirror"
chunk_size = 5000
view_binding = "glob"
torrent_client = ["webtorrent"]
http_timeout = "90s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(&cfg, path))

	assert.Equal(t, "/srv/mirror", cfg.DataDir)
	assert.Equal(t, 5000, cfg.ChunkSize)
	assert.Equal(t, ViewBindGlob, cfg.ViewBinding)
	assert.Equal(t, []string{"webtorrent"}, cfg.TorrentClient)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout.Std())
	// Untouched keys keep defaults.
	assert.Equal(t, DefaultDescriptorURL, cfg.DescriptorURL)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunksize = 10\n"), 0o644))

	cfg := DefaultConfig()
	assert.Error(t, LoadFile(&cfg, path))
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, LoadFile(&cfg, filepath.Join(t.TempDir(), "absent.toml")))
}

func TestOverrides_FlagsBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metamirror.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size = 5000\ndata_dir = \"from-file\"\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--chunk-size", "10", "--no-color", "--client", "webtorrent --quiet"}))

	cfg, err := o.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.Equal(t, "from-file", cfg.DataDir)
	assert.Equal(t, ColorNever, cfg.ColorMode)
	assert.Equal(t, []string{"webtorrent", "--quiet"}, cfg.TorrentClient)
}

func TestOverrides_UnsetFlagsKeepDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := BindFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := o.Resolve()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ChunkSize, cfg.ChunkSize)
	assert.Equal(t, ColorAuto, cfg.ColorMode)
}

func TestOverrides_InvalidValueFailsValidation(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--view-binding", "everything"}))

	_, err := o.Resolve()
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 42
	out, err := Encode(&cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "chunk_size = 42")

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	back := DefaultConfig()
	require.NoError(t, LoadFile(&back, path))
	assert.Equal(t, cfg, back)
}
