// Package probe checks reachability of repository targets without going
// through the engine. The doctor command uses it to tell "engine binary
// broken" apart from "backend unreachable".
package probe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

type Kind string

const (
	KindLocal Kind = "local"
	KindSFTP  Kind = "sftp"
	KindS3    Kind = "s3"
	KindREST  Kind = "rest"
	KindOther Kind = "other"
)

// Target is a parsed repository URI.
type Target struct {
	Kind Kind

	// local
	Path string

	// sftp
	Host string // always with port
	User string
	Pass string
	Dir  string

	// s3
	Endpoint string
	Bucket   string
	UseSSL   bool

	// rest
	URL string
}

// ParseURI splits a repository URI into its backend target. Plain paths
// (including single-letter drive prefixes) are local; unknown schemes map
// to KindOther and are left for the engine to judge.
func ParseURI(uri string) (Target, error) {
	scheme, rest, found := strings.Cut(uri, ":")
	if !found || len(scheme) <= 1 {
		return Target{Kind: KindLocal, Path: uri}, nil
	}

	switch scheme {
	case "sftp":
		return parseSFTP(rest)
	case "s3":
		return parseS3(rest)
	case "rest":
		return Target{Kind: KindREST, URL: rest}, nil
	default:
		return Target{Kind: KindOther}, nil
	}
}

// parseSFTP handles both URI flavors the engine accepts:
// "user@host:/path" and "//user@host//path".
func parseSFTP(rest string) (Target, error) {
	t := Target{Kind: KindSFTP}

	var hostPart string
	if strings.HasPrefix(rest, "//") {
		trimmed := strings.TrimPrefix(rest, "//")
		var ok bool
		hostPart, t.Dir, ok = strings.Cut(trimmed, "/")
		if !ok {
			return Target{}, apperrors.New(apperrors.KindConfig,
				fmt.Sprintf("invalid sftp repository %q: missing path", rest), "")
		}
		t.Dir = strings.TrimPrefix(t.Dir, "/")
	} else {
		var ok bool
		hostPart, t.Dir, ok = strings.Cut(rest, ":")
		if !ok {
			return Target{}, apperrors.New(apperrors.KindConfig,
				fmt.Sprintf("invalid sftp repository %q: missing path", rest), "")
		}
	}

	if user, host, ok := strings.Cut(hostPart, "@"); ok {
		t.Host = host
		if name, pass, hasPass := strings.Cut(user, ":"); hasPass {
			t.User, t.Pass = name, pass
		} else {
			t.User = user
		}
	} else {
		t.Host = hostPart
	}
	if !strings.Contains(t.Host, ":") {
		t.Host += ":22"
	}
	return t, nil
}

// parseS3 handles "s3:host/bucket" and "s3:http(s)://endpoint/bucket".
func parseS3(rest string) (Target, error) {
	t := Target{Kind: KindS3, UseSSL: true}

	switch {
	case strings.HasPrefix(rest, "https://"):
		rest = strings.TrimPrefix(rest, "https://")
	case strings.HasPrefix(rest, "http://"):
		rest = strings.TrimPrefix(rest, "http://")
		t.UseSSL = false
	}

	endpoint, bucketPath, ok := strings.Cut(rest, "/")
	if !ok || bucketPath == "" {
		return Target{}, apperrors.New(apperrors.KindConfig,
			fmt.Sprintf("invalid s3 repository %q: missing bucket", rest), "")
	}
	t.Endpoint = endpoint
	t.Bucket, _, _ = strings.Cut(bucketPath, "/")
	return t, nil
}

// Check probes the target behind a repository URI. A nil return means the
// backend answered; it says nothing about the repository being valid.
func Check(ctx context.Context, uri string) error {
	t, err := ParseURI(uri)
	if err != nil {
		return err
	}

	switch t.Kind {
	case KindLocal:
		return checkLocal(t)
	case KindSFTP:
		return checkSFTP(t)
	case KindS3:
		return checkS3(ctx, t)
	case KindREST:
		return checkREST(ctx, t)
	default:
		// Backend we cannot probe; the engine will report on it.
		return nil
	}
}

func checkLocal(t Target) error {
	if _, err := os.Stat(t.Path); err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection,
			fmt.Sprintf("repository folder %s is not accessible", t.Path),
			"Check that the drive is mounted and the folder exists.")
	}
	return nil
}

func checkS3(ctx context.Context, t Target) error {
	client, err := minio.New(t.Endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: t.UseSSL,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection, "failed to build S3 client", "")
	}

	exists, err := client.BucketExists(ctx, t.Bucket)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection,
			fmt.Sprintf("S3 endpoint %s is not reachable", t.Endpoint),
			"Check network access, AWS credentials in the environment, and the endpoint address.")
	}
	if !exists {
		return apperrors.New(apperrors.KindConnection,
			fmt.Sprintf("bucket %s does not exist on %s", t.Bucket, t.Endpoint), "")
	}
	return nil
}

func checkREST(ctx context.Context, t Target) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConfig,
			fmt.Sprintf("invalid rest repository URL %q", t.URL), "")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindConnection,
			fmt.Sprintf("rest server %s is not reachable", t.URL),
			"Check that the rest-server is running and the URL is correct.")
	}
	resp.Body.Close()
	// Any HTTP answer proves the server is there; auth failures are for
	// the engine to surface.
	return nil
}
