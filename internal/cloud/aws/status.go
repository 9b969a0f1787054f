package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/platform-tools/platform-cli/internal/config"
)

// StatusOptions controls the cross-service status scan.
type StatusOptions struct {
	Owner string
	Deep  bool
}

// ComputeStatus summarizes attribution-tagged instances by lifecycle state.
type ComputeStatus struct {
	Err      error
	Running  int
	Pending  int
	Stopped  int
	Other    int
	Examples []InstanceSummary // up to 10 running instances
}

// Total sums all counted states.
func (c ComputeStatus) Total() int {
	return c.Running + c.Pending + c.Stopped + c.Other
}

// StorageStatus summarizes attribution-tagged buckets. Object and byte
// totals are filled only by a deep scan.
type StorageStatus struct {
	Err     error
	Buckets int
	Objects int
	Bytes   int64
}

// DNSStatus summarizes attribution-tagged zones. The record total is filled
// only by a deep scan.
type DNSStatus struct {
	Err     error
	Zones   int
	Records int
}

// StatusReport aggregates all three resource families plus the caller
// identity when resolvable. A failed family carries its error and is
// reported unavailable; it never aborts collection of the others.
type StatusReport struct {
	Account string
	Arn     string
	Compute ComputeStatus
	Storage StorageStatus
	DNS     DNSStatus
}

// Active reports whether any counted family is non-empty.
func (r *StatusReport) Active() bool {
	return (r.Compute.Err == nil && r.Compute.Running+r.Compute.Pending > 0) ||
		(r.Storage.Err == nil && r.Storage.Buckets > 0) ||
		(r.DNS.Err == nil && r.DNS.Zones > 0)
}

// CollectStatus runs the three per-service scans sequentially, isolating
// failures per family.
func (s *Session) CollectStatus(ctx context.Context, opts StatusOptions) *StatusReport {
	report := &StatusReport{}

	if out, err := s.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err == nil {
		report.Account = awssdk.ToString(out.Account)
		report.Arn = awssdk.ToString(out.Arn)
	}

	report.Compute = s.computeStatus(ctx, opts.Owner)
	report.Storage = s.storageStatus(ctx, opts.Owner, opts.Deep)
	report.DNS = s.dnsStatus(ctx, opts.Owner, opts.Deep)
	return report
}

func (s *Session) computeStatus(ctx context.Context, owner string) ComputeStatus {
	var status ComputeStatus
	status.Err = s.describeTagged(ctx, owner, nil, func(inst ec2types.Instance) {
		switch inst.State.Name {
		case ec2types.InstanceStateNameRunning:
			status.Running++
			if len(status.Examples) < 10 {
				status.Examples = append(status.Examples, InstanceSummary{
					ID:    awssdk.ToString(inst.InstanceId),
					State: string(inst.State.Name),
					Type:  string(inst.InstanceType),
					Name:  tagValue(inst.Tags, config.NameKey),
				})
			}
		case ec2types.InstanceStateNamePending:
			status.Pending++
		case ec2types.InstanceStateNameStopped:
			status.Stopped++
		default:
			status.Other++
		}
	})
	return status
}

func (s *Session) storageStatus(ctx context.Context, owner string, deep bool) StorageStatus {
	var status StorageStatus
	names, err := s.ListBuckets(ctx, owner)
	if err != nil {
		status.Err = err
		return status
	}
	status.Buckets = len(names)
	if !deep {
		return status
	}
	for _, name := range names {
		// Per-bucket failures degrade to missing totals, matching the
		// warning-only contract of deep scans.
		input := &s3.ListObjectsV2Input{Bucket: awssdk.String(name)}
		for {
			page, err := s.S3.ListObjectsV2(ctx, input)
			if err != nil {
				break
			}
			for _, obj := range page.Contents {
				status.Objects++
				status.Bytes += awssdk.ToInt64(obj.Size)
			}
			if !awssdk.ToBool(page.IsTruncated) {
				break
			}
			input.ContinuationToken = page.NextContinuationToken
		}
	}
	return status
}

func (s *Session) dnsStatus(ctx context.Context, owner string, deep bool) DNSStatus {
	var status DNSStatus
	zones, err := s.ListZones(ctx, owner)
	if err != nil {
		status.Err = err
		return status
	}
	status.Zones = len(zones)
	if !deep {
		return status
	}
	for _, z := range zones {
		records, err := s.ListRecords(ctx, z.ID)
		if err != nil {
			continue
		}
		status.Records += len(records)
	}
	return status
}
