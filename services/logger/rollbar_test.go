package logsvc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "none", want: []interface{}{}},
		{name: "error", args: []interface{}{errors.New("boom")}, want: []interface{}{"error", "boom"}},
		{name: "extra", args: []interface{}{map[string]interface{}{"key": "k"}}, want: []interface{}{"key", "k"}},
		{name: "identity", args: []interface{}{core.Identity{ID: "d1"}}, want: []interface{}{"identity", "d1"}},
		{name: "other", args: []interface{}{42}, want: []interface{}{"arg", 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(tt.args))
		})
	}
}

func TestRollbarLogger_Prepare(t *testing.T) {
	l := RollbarLogger{}
	err := errors.New("boom")
	got := l.prepare("msg", []interface{}{core.Identity{ID: "a"}, err, core.Identity{ID: "b"}})
	assert.Equal(t, []interface{}{"msg", err}, got)
}

func TestNewRollbarLogger(t *testing.T) {
	conf := &core.Config{AppName: "Kaushal", Env: "TEST", Debug: true, Log: core.LogConfig{Level: "nope", Encoding: "json"}}
	l, err := NewRollbarLogger(conf)
	assert.NoError(t, err)
	l.Debug("debug is below the default level")
	l.Info("hello", map[string]interface{}{"k": "v"})
}

func TestNewRollbarLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaushal.log")
	conf := &core.Config{AppName: "Kaushal", Debug: true, Log: core.LogConfig{Level: "info", Encoding: "json", File: path}}
	l, err := NewRollbarLogger(conf)
	require.NoError(t, err)
	l.Warn("draft degraded", errors.New("quota exceeded"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"draft degraded"`)
	assert.Contains(t, string(data), `"error":"quota exceeded"`)
}
