package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want Target
	}{
		{
			name: "plain path",
			uri:  "/srv/backups/repo",
			want: Target{Kind: KindLocal, Path: "/srv/backups/repo"},
		},
		{
			name: "windows drive path",
			uri:  `E:\backups\repo`,
			want: Target{Kind: KindLocal, Path: `E:\backups\repo`},
		},
		{
			name: "sftp colon form",
			uri:  "sftp:kim@nas:/srv/restic-repo",
			want: Target{Kind: KindSFTP, Host: "nas:22", User: "kim", Dir: "/srv/restic-repo"},
		},
		{
			name: "sftp url form",
			uri:  "sftp://kim@nas.local//srv/repo",
			want: Target{Kind: KindSFTP, Host: "nas.local:22", User: "kim", Dir: "srv/repo"},
		},
		{
			name: "s3 aws",
			uri:  "s3:s3.amazonaws.com/my-bucket/repo",
			want: Target{Kind: KindS3, Endpoint: "s3.amazonaws.com", Bucket: "my-bucket", UseSSL: true},
		},
		{
			name: "s3 plain http endpoint",
			uri:  "s3:http://minio:9000/backups",
			want: Target{Kind: KindS3, Endpoint: "minio:9000", Bucket: "backups"},
		},
		{
			name: "rest",
			uri:  "rest:https://backup.example.com:8000/",
			want: Target{Kind: KindREST, URL: "https://backup.example.com:8000/"},
		},
		{
			name: "unknown backend",
			uri:  "rclone:remote:bucket",
			want: Target{Kind: KindOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseURIInvalid(t *testing.T) {
	for _, uri := range []string{"sftp:hostonly", "s3:endpoint-without-bucket"} {
		_, err := ParseURI(uri)
		require.Error(t, err, uri)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConfig))
	}
}

func TestCheckLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Check(context.Background(), dir))

	err := Check(context.Background(), dir+"/missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConnection))
}

func TestCheckRESTReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized) // an answer is an answer
	}))
	defer srv.Close()

	require.NoError(t, Check(context.Background(), "rest:"+srv.URL))
}

func TestCheckRESTUnreachable(t *testing.T) {
	err := Check(context.Background(), "rest:http://127.0.0.1:1/")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConnection))
}

func TestCheckUnknownBackendSkipped(t *testing.T) {
	require.NoError(t, Check(context.Background(), "rclone:remote:bucket"))
}
