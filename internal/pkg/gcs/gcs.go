package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicHost = "https://storage.googleapis.com"

// Client uploads report images to a Cloud Storage bucket
type Client struct {
	client     *storage.Client
	bucketName string
	public     bool
}

// NewClient returns a client for bucket. When public is set, uploaded objects get an allUsers reader ACL.
func NewClient(ctx context.Context, bucketName, credentialsPath string, public bool) (*Client, error) {
	if bucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{
		client:     client,
		bucketName: bucketName,
		public:     public,
	}, nil
}

// Upload writes data at key. The key is returned unchanged as the stored key.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	obj := c.client.Bucket(c.bucketName).Object(key)

	// refuse to overwrite an existing object
	wc := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}

	if c.public {
		if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
			return "", fmt.Errorf("failed to set ACL: %w", err)
		}
	}

	return key, nil
}

// PublicURL builds the public URL of an object in the bucket
func (c *Client) PublicURL(storedKey string) string {
	return PublicURL(c.bucketName, storedKey)
}

// PublicURL joins the bucket base path and an object key, escaping each segment
func PublicURL(bucket, key string) string {
	segments := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, bucket, strings.Join(segments, "/"))
}

func (c *Client) Close() error {
	return c.client.Close()
}
