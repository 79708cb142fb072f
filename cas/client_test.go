package cas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validHash = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

func TestValidateFileID(t *testing.T) {
	require.NoError(t, ValidateFileID(validHash))
	err := ValidateFileID("not-a-hash")
	require.Error(t, err)
	var invalid *ErrInvalidFileID
	require.ErrorAs(t, err, &invalid)
}

func TestGetReconstructionBuildsRequest(t *testing.T) {
	var gotPath, gotAuth, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"offset_into_first_range": 3,
			"terms": [{"hash":"` + validHash + `","unpacked_length":5,"range":{"start":0,"end":1}}],
			"fetch_info": {"` + validHash + `": [{"url":"https://x.example.com/blob","range":{"start":0,"end":1},"url_range":{"start":0,"end":99}}]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	rng := &ByteRange{Start: 3, End: 5}
	plan, err := c.GetReconstruction(context.Background(), srv.URL, "tok-123", validHash, rng)
	require.NoError(t, err)

	require.Equal(t, "/v1/reconstructions/"+validHash, gotPath)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.Equal(t, "bytes=3-4", gotRange)

	require.EqualValues(t, 3, plan.OffsetIntoFirstRange)
	require.Len(t, plan.Terms, 1)
	require.Equal(t, validHash, plan.Terms[0].Hash)
	require.Equal(t, ChunkRange{0, 1}, plan.Terms[0].Range)
	fi, ok := plan.FetchInfoFor(plan.Terms[0])
	require.True(t, ok)
	require.Equal(t, "https://x.example.com/blob", fi.URL)
}

func TestGetReconstructionWholeFileOmitsRangeHeader(t *testing.T) {
	var sawRange bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRange = r.Header.Get("Range") != ""
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"offset_into_first_range":0,"terms":[],"fetch_info":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetReconstruction(context.Background(), srv.URL, "tok", validHash, nil)
	require.NoError(t, err)
	require.False(t, sawRange)
}

func TestGetReconstructionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetReconstruction(context.Background(), srv.URL, "tok", validHash, nil)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetReconstructionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetReconstruction(context.Background(), srv.URL, "tok", validHash, nil)
	require.Error(t, err)
	var reqErr *ErrRequestFailed
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 500, reqErr.StatusCode)
}

func TestGetReconstructionMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetReconstruction(context.Background(), srv.URL, "tok", validHash, nil)
	require.ErrorIs(t, err, ErrMalformedPlan)
}

func TestGetReconstructionMissingFetchInfoIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"offset_into_first_range": 0,
			"terms": [{"hash":"` + validHash + `","unpacked_length":5,"range":{"start":0,"end":1}}],
			"fetch_info": {}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetReconstruction(context.Background(), srv.URL, "tok", validHash, nil)
	require.ErrorIs(t, err, ErrMalformedPlan)
	require.True(t, strings.Contains(err.Error(), "no fetch_info"))
}

func TestGetReconstructionInvalidFileID(t *testing.T) {
	c := NewClient(nil)
	_, err := c.GetReconstruction(context.Background(), "https://cas.example.com", "tok", "short", nil)
	var invalid *ErrInvalidFileID
	require.ErrorAs(t, err, &invalid)
}
