// Package storage exports graph snapshots to S3 compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// Snapshot formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// LinkExpiry is how long a download link stays valid.
const LinkExpiry = 15 * time.Minute

var ErrUnknownFormat = errors.New("unknown snapshot format")

// Snapshot is one exported graph.
type Snapshot struct {
	Key       string    `json:"key"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Exporter writes graph snapshots below <prefix>/<session id>/.
//
// An Exporter should be created using NewExporter or NewExporterFromConfig.
type Exporter struct {
	store      ObjectStore
	presigner  Presigner
	bucket     string
	prefix     string
	linkPrefix string
	newID      func() (string, error)
}

// NewExporterParams are the parameters for NewExporter.
//
// Example:
//
//	NewExporterParams{
//		Store:     s3Client,
//		Presigner: s3.NewPresignClient(s3Client),
//		Bucket:    "relminer",
//		Prefix:    "graphs",
//	}
type NewExporterParams struct {
	Store     ObjectStore
	Presigner Presigner
	Bucket    string
	Prefix    string
	// LinkPrefix is prepended to the path of every signed url.
	LinkPrefix string
}

func NewExporter(params NewExporterParams) *Exporter {
	return &Exporter{
		store:      params.Store,
		presigner:  params.Presigner,
		bucket:     params.Bucket,
		prefix:     strings.Trim(params.Prefix, "/"),
		linkPrefix: params.LinkPrefix,
		newID:      util.NewID,
	}
}

// NewExporterFromConfig connects to S3 with cfg.
func NewExporterFromConfig(ctx context.Context, cfg config.S3) (*Exporter, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	presigner, linkPrefix, err := newPresigner(client, cfg.PublicEndpoint)
	if err != nil {
		return nil, err
	}
	return NewExporter(NewExporterParams{
		Store:      client,
		Presigner:  presigner,
		Bucket:     cfg.Bucket,
		Prefix:     cfg.Prefix,
		LinkPrefix: linkPrefix,
	}), nil
}

func (e *Exporter) sessionPrefix(sessionID string) string {
	return path.Join(e.prefix, sessionID) + "/"
}

// Encode renders g in the given format.
func Encode(g graph.Graph, format string) ([]byte, string, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode graph: %w", err)
		}
		return data, "application/json", nil
	case FormatDOT:
		return []byte(g.ToDOT()), "text/vnd.graphviz", nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Export uploads g and returns a presigned download link.
func (e *Exporter) Export(ctx context.Context, sessionID string, g graph.Graph, format string) (Snapshot, error) {
	if format == "" {
		format = FormatJSON
	}
	data, contentType, err := Encode(g, format)
	if err != nil {
		return Snapshot{}, err
	}

	id, err := e.newID()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to generate snapshot id: %w", err)
	}
	key := e.sessionPrefix(sessionID) + id + "." + format

	_, err = e.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to upload snapshot to S3: %w", err)
	}

	link, err := e.Link(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}

	logger.Info("[Export] Graph snapshot stored", "session", sessionID, "key", key, "nodes", len(g.Nodes), "links", len(g.Links))
	return Snapshot{Key: key, Format: format, URL: link, ExpiresAt: time.Now().Add(LinkExpiry)}, nil
}

// Link returns a presigned download link for key.
func (e *Exporter) Link(ctx context.Context, key string) (string, error) {
	out, err := e.presigner.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(LinkExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}
	return withPathPrefix(out.URL, e.linkPrefix)
}

// List returns the snapshot keys of a session.
func (e *Exporter) List(ctx context.Context, sessionID string) ([]string, error) {
	return listKeys(ctx, e.store, e.bucket, e.sessionPrefix(sessionID))
}

// DeleteSession removes every snapshot of a session.
func (e *Exporter) DeleteSession(ctx context.Context, sessionID string) error {
	keys, err := e.List(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := deleteKeys(ctx, e.store, e.bucket, keys); err != nil {
		return err
	}
	logger.Debug("[Export] Session snapshots deleted", "session", sessionID, "count", len(keys))
	return nil
}
