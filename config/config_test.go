package config

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"textcore/highlight"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/home/u/.config/textcore/settings.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/cfg/settings.json"
	if err := afero.WriteFile(fs, path, []byte(`{"tab_size": 2, "theme": "nord", "watch": true}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEXTCORE_UNDO_LIMIT", "50")

	cfg, err := Load(fs, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TabSize != 2 || cfg.Theme != "nord" || !cfg.Watch {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.UndoLimit != 50 {
		t.Fatalf("expected env undo limit 50, got %d", cfg.UndoLimit)
	}
	if cfg.IndexWorkers != Default().IndexWorkers {
		t.Fatalf("expected default workers, got %d", cfg.IndexWorkers)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/cfg/settings.json"
	if err := afero.WriteFile(fs, path, []byte(`{"tab_size": 2, "theme": "nord"}`), 0644); err != nil {
		t.Fatal(err)
	}
	flags := pflag.NewFlagSet("textcore", pflag.ContinueOnError)
	flags.Int("tab-size", 8, "")
	flags.String("theme", "dark", "")
	flags.Bool("verbose", false, "")
	if err := flags.Parse([]string{"--tab-size=3", "--verbose"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFlags(fs, path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TabSize != 3 {
		t.Fatalf("expected flag tab size 3, got %d", cfg.TabSize)
	}
	if cfg.Theme != "nord" {
		t.Fatalf("expected unset flag to leave the file value, got %s", cfg.Theme)
	}
}

func TestLoadMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/cfg/settings.json"
	if err := afero.WriteFile(fs, path, []byte(`{"tab_size": `), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fs, path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/cfg/textcore/settings.json"
	cfg := Default()
	cfg.Theme = "dracula"
	cfg.IndexWorkers = 8
	cfg.SyntaxSync = true
	if err := cfg.Save(fs, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(fs, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *cfg {
		t.Fatalf("expected %+v, got %+v", cfg, got)
	}
}

func TestLanguageTabSize(t *testing.T) {
	cfg := Default()
	cfg.TabSize = 3
	if got := cfg.LanguageTabSize("JSON"); got != 2 {
		t.Fatalf("expected 2 for JSON, got %d", got)
	}
	if got := cfg.LanguageTabSize("plaintext"); got != 3 {
		t.Fatalf("expected configured 3, got %d", got)
	}
	if !cfg.LanguageUseTabs("Go") || cfg.LanguageUseTabs("Python") {
		t.Fatalf("unexpected tab usage")
	}
}

func TestThemeStyle(t *testing.T) {
	cfg := Default()
	cfg.Theme = "missing"
	theme := cfg.GetTheme()
	if theme != Themes["monokai"] {
		t.Fatalf("expected monokai fallback, got %s", theme.Name)
	}

	fg, bg, attr := theme.Style(highlight.Data{Foreground: highlight.Keyword}).Decompose()
	if fg != theme.Syntax[highlight.Keyword] || bg != theme.Background {
		t.Fatalf("unexpected keyword colours %v %v", fg, bg)
	}
	if attr&tcell.AttrBold == 0 {
		t.Fatalf("expected keywords in bold")
	}

	_, _, attr = theme.Style(highlight.Data{Foreground: highlight.Normal, Underline: true}).Decompose()
	if attr&tcell.AttrUnderline == 0 {
		t.Fatalf("expected underline")
	}

	_, bg, _ = theme.Style(highlight.Data{Foreground: highlight.Normal, Background: highlight.Comment}).Decompose()
	if bg != theme.Syntax[highlight.Comment] {
		t.Fatalf("expected comment background, got %v", bg)
	}

	if theme.Color(highlight.Normal) != theme.Foreground {
		t.Fatalf("expected normal text in the foreground colour")
	}
}
