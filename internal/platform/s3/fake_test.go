package s3

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeBucket is an in-memory, path-style S3 endpoint for one bucket.
type fakeBucket struct {
	name string

	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	headers  map[string]http.Header
	pageSize int
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{
		name:     name,
		objects:  map[string][]byte{},
		modified: map[string]time.Time{},
		headers:  map[string]http.Header{},
		pageSize: 1000,
	}
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func xmlError(w http.ResponseWriter, statusCode int, code string) {
	xmlResponse(w, statusCode, fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>%s</Code><Message>%s</Message></Error>`, code, code))
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != b.name {
		xmlError(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case key == "" && r.Method == http.MethodPut:
		xmlError(w, http.StatusConflict, "BucketAlreadyOwnedByYou")
	case key == "" && r.Method == http.MethodGet:
		b.list(w, r)
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.modified[key] = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		b.headers[key] = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := b.objects[key]
		if !ok {
			xmlError(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case r.Method == http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// list serves ListObjectsV2 with continuation tokens of pageSize keys.
func (b *fakeBucket) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	start := r.URL.Query().Get("continuation-token")

	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) && k > start {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	truncated := len(keys) > b.pageSize
	if truncated {
		keys = keys[:b.pageSize]
	}

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&sb, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>%t</IsTruncated>", b.name, prefix, len(keys), truncated)
	if truncated {
		fmt.Fprintf(&sb, "<NextContinuationToken>%s</NextContinuationToken>", keys[len(keys)-1])
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>%s</LastModified></Contents>",
			k, len(b.objects[k]), b.modified[k].Format("2006-01-02T15:04:05.000Z"))
	}
	sb.WriteString("</ListBucketResult>")
	xmlResponse(w, http.StatusOK, sb.String())
}

// testClient creates a Client backed by handler.
func testClient(t *testing.T, handler http.Handler, bucket string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:                     "fsn1",
		BaseEndpoint:               aws.String(server.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	return &Client{s3: client, bucket: bucket}
}
