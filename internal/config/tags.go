// Package config holds the tagging conventions that mark resources as
// owned by this CLI. The attribution tag is the sole authorization
// credential for every mutating command.
package config

import (
	"fmt"
	"os/user"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	// AttributionKey / AttributionValue form the sentinel tag. A resource
	// without CreatedBy=project-cli is invisible to list commands and
	// refused by mutating ones.
	AttributionKey   = "CreatedBy"
	AttributionValue = "project-cli"

	OwnerKey       = "Owner"
	ProjectKey     = "Project"
	EnvironmentKey = "Environment"
	NameKey        = "Name"
)

// Tag is a single key/value pair in provider-neutral form. Conversion to
// each service's wire shape happens at the call boundary.
type Tag struct {
	Key   string
	Value string
}

// BuildTags assembles the standard tag set for any creatable resource:
// attribution + owner, plus project/environment when non-empty. Owner is
// required; no format validation beyond non-emptiness.
func BuildTags(owner, project, env string) ([]Tag, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner tag value must not be empty")
	}
	tags := []Tag{
		{Key: AttributionKey, Value: AttributionValue},
		{Key: OwnerKey, Value: owner},
	}
	if project != "" {
		tags = append(tags, Tag{Key: ProjectKey, Value: project})
	}
	if env != "" {
		tags = append(tags, Tag{Key: EnvironmentKey, Value: env})
	}
	return tags, nil
}

// DefaultOwner returns the invoking user's local account name, or "unknown"
// when the lookup fails. Computed once at the command boundary and threaded
// down as a plain parameter.
func DefaultOwner() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

// EC2Tags converts to the EC2 wire shape.
func EC2Tags(tags []Tag) []ec2types.Tag {
	out := make([]ec2types.Tag, 0, len(tags))
	for _, t := range tags {
		t := t
		out = append(out, ec2types.Tag{Key: &t.Key, Value: &t.Value})
	}
	return out
}

// S3Tags converts to the S3 wire shape.
func S3Tags(tags []Tag) []s3types.Tag {
	out := make([]s3types.Tag, 0, len(tags))
	for _, t := range tags {
		t := t
		out = append(out, s3types.Tag{Key: &t.Key, Value: &t.Value})
	}
	return out
}

// Route53Tags converts to the Route53 wire shape.
func Route53Tags(tags []Tag) []r53types.Tag {
	out := make([]r53types.Tag, 0, len(tags))
	for _, t := range tags {
		t := t
		out = append(out, r53types.Tag{Key: &t.Key, Value: &t.Value})
	}
	return out
}
