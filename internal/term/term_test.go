package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/metamirror/internal/config"
)

func TestConfigure_Modes(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })

	Configure(config.ColorAlways)
	if !Enabled() || Red == "" || NC == "" {
		t.Fatalf("ColorAlways should enable colors")
	}

	Configure(config.ColorNever)
	if Enabled() || Red != "" || Blue != "" {
		t.Fatalf("ColorNever should clear colors")
	}
}

func TestConfigure_AutoRespectsNoColor(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })
	t.Setenv("NO_COLOR", "1")

	Configure(config.ColorAuto)
	if Enabled() {
		t.Error("ColorAuto should stay off when NO_COLOR is set")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}
