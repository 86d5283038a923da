// Package evidence mints presigned S3 upload URLs so browsers push evidence
// files straight to object storage instead of streaming them through the
// gateway.
package evidence

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/complyops/compliance-gateway/internal/config"
)

// UploadTarget tells the browser exactly how to perform the upload.
type UploadTarget struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	Key       string            `json:"key"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// presignAPI is the slice of the S3 presign client we use.
type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner creates time-limited PUT URLs into the evidence bucket.
type Presigner struct {
	cfg     config.EvidenceConfig
	presign presignAPI
}

// New builds a Presigner from ambient AWS credentials.
func New(ctx context.Context, cfg config.EvidenceConfig) (*Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Presigner{
		cfg:     cfg,
		presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
	}, nil
}

// UploadURL presigns a PUT for one evidence file. Object keys are
// prefix/taskID/uuid-filename, so uploads never collide and the task
// association survives in the key itself.
func (p *Presigner) UploadURL(ctx context.Context, taskID, filename, contentType string) (*UploadTarget, error) {
	key := path.Join(p.cfg.KeyPrefix, taskID, uuid.New().String()+"-"+sanitizeFilename(filename))

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := p.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(p.cfg.URLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presigning evidence upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return &UploadTarget{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		ExpiresAt: time.Now().Add(p.cfg.URLExpiry).UTC(),
	}, nil
}

// sanitizeFilename strips path components and anything outside a safe
// character set. An empty or fully-stripped name falls back to "upload".
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "upload"
	}
	return out
}
