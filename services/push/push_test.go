package pushsvc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
)

func TestExpoService_batches(t *testing.T) {
	var (
		mu      sync.Mutex
		batches [][]expoMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var batch []expoMessage
		assert.NoError(t, json.Unmarshal(b, &batch))
		assert.Equal(t, "Bearer expo-token", r.Header.Get("Authorization"))
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	conf := core.NewTestConfig()
	conf.ExpoPushURL = server.URL
	conf.ExpoAccessToken = "expo-token"
	svc := NewExpoService(core.NopLogger{}, conf)

	tokens := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		tokens = append(tokens, "ExponentPushToken[x]")
	}
	msg := core.NewPushMessage("New Homework Assigned", "Algebra", map[string]interface{}{"type": "homework"}, tokens...)
	require.NoError(t, svc.SendPush(context.Background(), msg, nil))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], expoBatchSize)
	assert.Len(t, batches[1], 50)
	assert.Equal(t, "New Homework Assigned", batches[0][0].Title)
	assert.Equal(t, "default", batches[0][0].Sound)
}

func TestExpoService_failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	conf := core.NewTestConfig()
	conf.ExpoPushURL = server.URL
	svc := NewExpoService(core.NopLogger{}, conf)

	err := svc.SendPush(context.Background(), core.NewPushMessage("t", "b", nil, "tok"))
	require.Error(t, err)
	_, ok := err.(*core.DependencyError)
	assert.True(t, ok)
}

func TestConsoleService(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(&out)
	require.NoError(t, svc.SendPush(context.Background(), core.NewPushMessage("Notice: Holiday", "Closed tomorrow", nil, "a", "b"), nil))

	require.Len(t, svc.Sent(), 1)
	assert.Equal(t, "PUSH [a,b] Notice: Holiday: Closed tomorrow\n", out.String())
}
