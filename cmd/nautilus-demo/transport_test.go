package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/nautilus/report"
)

func TestHTTPTransportPostsToSignalPath(t *testing.T) {
	var gotPath, gotType, gotAgent, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotAgent = r.Header.Get("User-Agent")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL+"/", "demo/1")
	err := tr.Send(context.Background(), report.Payload{
		Kind:        report.KindMetrics,
		ContentType: report.ContentTypeJSON,
		Body:        []byte(`{"resource_metrics":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/metrics", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "demo/1", gotAgent)
	assert.Equal(t, `{"resource_metrics":[]}`, gotBody)
}

func TestHTTPTransportRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newHTTPTransport(srv.URL, "demo/1").Send(context.Background(), report.Payload{Kind: report.KindTraces})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestWriterTransport(t *testing.T) {
	var buf bytes.Buffer
	tr := newWriterTransport(&buf)
	require.NoError(t, tr.Send(context.Background(), report.Payload{Kind: report.KindLogs, Body: []byte("{}")}))
	assert.Equal(t, "logs {}\n", buf.String())
}
