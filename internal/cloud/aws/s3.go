package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

// bucketTags reads a bucket's tag set. Buckets without tags (or whose
// tagging read fails) come back empty; the caller treats them as foreign.
func (s *Session) bucketTags(ctx context.Context, bucket string) map[string]string {
	out, err := s.S3.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: awssdk.String(bucket)})
	if err != nil {
		return nil
	}
	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
	}
	return tags
}

// BucketAuthorized reports whether the bucket carries the attribution tag.
func (s *Session) BucketAuthorized(ctx context.Context, bucket string) bool {
	return s.bucketTags(ctx, bucket)[config.AttributionKey] == config.AttributionValue
}

// ListBuckets enumerates the account's buckets and returns the names of
// those carrying the attribution tag (and matching owner, when given).
// One tagging read per bucket; S3 has no bulk tag query.
func (s *Session) ListBuckets(ctx context.Context, owner string) ([]string, error) {
	out, err := s.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, &models.ProviderError{Service: "s3", Operation: "ListBuckets", Cause: err}
	}
	var names []string
	for _, b := range out.Buckets {
		name := awssdk.ToString(b.Name)
		tags := s.bucketTags(ctx, name)
		if tags[config.AttributionKey] != config.AttributionValue {
			continue
		}
		if owner != "" && tags[config.OwnerKey] != owner {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// CreateBucketOptions carries the validated inputs of `s3 create`.
type CreateBucketOptions struct {
	Name    string
	Public  bool
	Owner   string
	Project string
	Env     string
}

// CreateBucket creates the bucket, then applies encryption, tagging and the
// visibility configuration as independent best-effort steps. Once the
// bucket exists nothing is rolled back; failed steps surface as warnings.
func (s *Session) CreateBucket(ctx context.Context, opts CreateBucketOptions) ([]models.StepResult, error) {
	tags, err := config.BuildTags(opts.Owner, opts.Project, opts.Env)
	if err != nil {
		return nil, &models.ValidationError{Field: "owner", Value: opts.Owner, Expected: "non-empty string"}
	}

	input := &s3.CreateBucketInput{Bucket: awssdk.String(opts.Name)}
	// us-east-1 rejects an explicit LocationConstraint.
	if s.region != FallbackRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.S3.CreateBucket(ctx, input); err != nil {
		return nil, &models.ProviderError{Service: "s3", Operation: "CreateBucket", Resource: opts.Name, Cause: err}
	}

	var steps []models.StepResult

	_, err = s.S3.PutBucketEncryption(ctx, &s3.PutBucketEncryptionInput{
		Bucket: awssdk.String(opts.Name),
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
			Rules: []s3types.ServerSideEncryptionRule{{
				ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
					SSEAlgorithm: s3types.ServerSideEncryptionAes256,
				},
			}},
		},
	})
	steps = append(steps, models.StepResult{Step: "default encryption", Err: err})

	_, err = s.S3.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
		Bucket:  awssdk.String(opts.Name),
		Tagging: &s3types.Tagging{TagSet: config.S3Tags(tags)},
	})
	steps = append(steps, models.StepResult{Step: "tagging", Err: err})

	block := !opts.Public
	_, err = s.S3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: awssdk.String(opts.Name),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       awssdk.Bool(block),
			IgnorePublicAcls:      awssdk.Bool(block),
			BlockPublicPolicy:     awssdk.Bool(block),
			RestrictPublicBuckets: awssdk.Bool(block),
		},
	})
	steps = append(steps, models.StepResult{Step: "public access block", Err: err})

	if opts.Public {
		policy, _ := json.Marshal(map[string]any{
			"Version": "2012-10-17",
			"Statement": []map[string]any{{
				"Sid":       "PublicReadGetObject",
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", opts.Name)},
			}},
		})
		_, err = s.S3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: awssdk.String(opts.Name),
			Policy: awssdk.String(string(policy)),
		})
		steps = append(steps, models.StepResult{Step: "public-read policy", Err: err})
	}

	return steps, nil
}

// UploadObject uploads one local file to an attribution-tagged bucket.
// key defaults to the file's base name; content type is inferred from the
// key's extension when possible.
func (s *Session) UploadObject(ctx context.Context, bucket, filePath, key string) (string, error) {
	if !s.BucketAuthorized(ctx, bucket) {
		return "", &models.AuthorizationError{ResourceType: "bucket", Resource: bucket}
	}

	if key == "" {
		key = filepath.Base(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
		Body:   f,
	}
	if ctype := mime.TypeByExtension(filepath.Ext(key)); ctype != "" {
		input.ContentType = awssdk.String(ctype)
	}
	if _, err := s.S3.PutObject(ctx, input); err != nil {
		return "", &models.ProviderError{Service: "s3", Operation: "PutObject", Resource: bucket + "/" + key, Cause: err}
	}
	return key, nil
}

// purgeBucket deletes every object version in the bucket, falling back to
// current objects only when the bucket is unversioned.
func (s *Session) purgeBucket(ctx context.Context, bucket string) error {
	deleteBatch := func(objs []s3types.ObjectIdentifier) error {
		if len(objs) == 0 {
			return nil
		}
		_, err := s.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: awssdk.String(bucket),
			Delete: &s3types.Delete{Objects: objs, Quiet: awssdk.Bool(true)},
		})
		return err
	}

	versioned := true
	input := &s3.ListObjectVersionsInput{Bucket: awssdk.String(bucket)}
	for versioned {
		page, err := s.S3.ListObjectVersions(ctx, input)
		if err != nil {
			versioned = false
			break
		}
		var objs []s3types.ObjectIdentifier
		for _, v := range page.Versions {
			objs = append(objs, s3types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range page.DeleteMarkers {
			objs = append(objs, s3types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}
		if err := deleteBatch(objs); err != nil {
			return &models.ProviderError{Service: "s3", Operation: "DeleteObjects", Resource: bucket, Cause: err}
		}
		if !awssdk.ToBool(page.IsTruncated) {
			return nil
		}
		input.KeyMarker = page.NextKeyMarker
		input.VersionIdMarker = page.NextVersionIdMarker
	}

	// Unversioned fallback: purge current objects.
	objInput := &s3.ListObjectsV2Input{Bucket: awssdk.String(bucket)}
	for {
		page, err := s.S3.ListObjectsV2(ctx, objInput)
		if err != nil {
			return &models.ProviderError{Service: "s3", Operation: "ListObjectsV2", Resource: bucket, Cause: err}
		}
		var objs []s3types.ObjectIdentifier
		for _, o := range page.Contents {
			objs = append(objs, s3types.ObjectIdentifier{Key: o.Key})
		}
		if err := deleteBatch(objs); err != nil {
			return &models.ProviderError{Service: "s3", Operation: "DeleteObjects", Resource: bucket, Cause: err}
		}
		if !awssdk.ToBool(page.IsTruncated) {
			return nil
		}
		objInput.ContinuationToken = page.NextContinuationToken
	}
}

// DeleteBucket removes an attribution-tagged bucket. Without force the
// provider's own emptiness constraint applies; with force all object
// versions are purged first.
func (s *Session) DeleteBucket(ctx context.Context, bucket string, force bool) error {
	if !s.BucketAuthorized(ctx, bucket) {
		return &models.AuthorizationError{ResourceType: "bucket", Resource: bucket}
	}
	if force {
		if err := s.purgeBucket(ctx, bucket); err != nil {
			return err
		}
	}
	if _, err := s.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: awssdk.String(bucket)}); err != nil {
		return &models.ProviderError{Service: "s3", Operation: "DeleteBucket", Resource: bucket, Cause: err}
	}
	return nil
}
