package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeFile(t, root, configFileName, "[check]\njobs = 2\n")
	target := writeFile(t, root, "a/b/prog.ll", cleanIR)

	found, err := findConfig(target)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, found)

	found, err = findConfig(filepath.Dir(target))
	require.NoError(t, err)
	assert.Equal(t, cfgPath, found)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, configFileName, `[check]
format = "json"
jobs = 4
disk_cache = true
ui = "off"

[history]
db = "runs.db"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.File.Check.Format)
	assert.Equal(t, 4, cfg.File.Check.Jobs)
	assert.True(t, cfg.File.Check.DiskCache)
	assert.True(t, cfg.defined("check", "ui"))
	assert.False(t, cfg.defined("check", "report_unresolved"))

	assert.Equal(t, filepath.Join(dir, "runs.db"), cfg.historyDB(defaultHistoryDB, false))
	assert.Equal(t, "other.db", cfg.historyDB("other.db", true))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[check]\nfromat = \"text\"\n",
		"bad format":   "[check]\nformat = \"xml\"\n",
		"bad ui":       "[check]\nui = \"sometimes\"\n",
		"negative job": "[check]\njobs = -1\n",
		"empty db":     "[history]\ndb = \"\"\n",
		"syntax":       "[check\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), configFileName, content)
			_, err := loadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestNilConfigKeepsFlagValues(t *testing.T) {
	var cfg *projectConfig
	assert.False(t, cfg.defined("check", "format"))
	assert.Equal(t, defaultHistoryDB, cfg.historyDB(defaultHistoryDB, false))
}

func TestReadUIMode(t *testing.T) {
	mode, err := readUIMode(" ON ")
	require.NoError(t, err)
	assert.Equal(t, uiModeOn, mode)

	mode, err = readUIMode("")
	require.NoError(t, err)
	assert.Equal(t, uiModeAuto, mode)

	_, err = readUIMode("maybe")
	assert.Error(t, err)

	assert.True(t, shouldUseTUI(uiModeOn, true))
	assert.False(t, shouldUseTUI(uiModeOff, false))
	assert.False(t, shouldUseTUI(uiModeAuto, true))
}
