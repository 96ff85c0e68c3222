package logsvc

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(&buf, core.NewTestConfig())
	logger.Enable(false)

	var exitCode int
	logger.exit = func(code int) { exitCode = code }

	id := core.Identity{ID: "u1", Role: core.RoleTeacher, CoachingID: "c1"}
	logger.Error("collecting fee", errors.New("boom"), map[string]interface{}{"student_id": "s1"}, id)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "collecting fee", line["message"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "s1", line["student_id"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "TEACHER", line["role"])

	buf.Reset()
	logger.Fatal("bye")
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, buf.String(), `"level":"fatal"`)
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(&bytes.Buffer{}, core.NewTestConfig())
	id := core.Identity{ID: "u1", Role: core.RoleStudent}

	args := logger.prepare("msg", []interface{}{id, id, "extra"})
	require.Len(t, args, 3) // msg, person context, extra
	assert.Equal(t, "msg", args[0])
	assert.Equal(t, "extra", args[2])
}
