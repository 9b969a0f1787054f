package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
	"github.com/platform-tools/platform-cli/internal/utils"
)

// RecordTypes lists the supported record types.
var RecordTypes = []string{"A", "AAAA", "CNAME", "TXT"}

// DefaultRecordTTL is the TTL applied when the operator omits one.
const DefaultRecordTTL = 300

const zoneChangeComment = "managed by project-cli"

// RecordTypeAllowed reports whether rtype (any case) is supported.
func RecordTypeAllowed(rtype string) bool {
	upper := strings.ToUpper(rtype)
	for _, t := range RecordTypes {
		if upper == t {
			return true
		}
	}
	return false
}

// NormalizeDNSName appends the trailing dot Route53 expects.
func NormalizeDNSName(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// QuoteTXTValue wraps an unquoted TXT value in literal quotes; values
// already quoted pass through unchanged.
func QuoteTXTValue(value string) string {
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2 {
		return value
	}
	return `"` + value + `"`
}

// zoneID strips the /hostedzone/ prefix the API returns.
func zoneID(raw string) string {
	parts := strings.Split(raw, "/")
	return parts[len(parts)-1]
}

// zoneTags reads a zone's tag set; failures come back empty and the zone
// is treated as foreign.
func (s *Session) zoneTags(ctx context.Context, id string) map[string]string {
	out, err := s.Route53.ListTagsForResource(ctx, &route53.ListTagsForResourceInput{
		ResourceType: r53types.TagResourceTypeHostedzone,
		ResourceId:   awssdk.String(id),
	})
	if err != nil || out.ResourceTagSet == nil {
		return nil
	}
	tags := make(map[string]string, len(out.ResourceTagSet.Tags))
	for _, t := range out.ResourceTagSet.Tags {
		tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
	}
	return tags
}

// authorizeZone refuses record mutations on zones this CLI did not create.
func (s *Session) authorizeZone(ctx context.Context, id string) error {
	if s.zoneTags(ctx, id)[config.AttributionKey] != config.AttributionValue {
		return &models.AuthorizationError{ResourceType: "hosted zone", Resource: id}
	}
	return nil
}

// ZoneSummary is one row of `route53 list-zones`.
type ZoneSummary struct {
	ID   string
	Name string
}

// ListZones enumerates hosted zones and filters by attribution (+ owner).
func (s *Session) ListZones(ctx context.Context, owner string) ([]ZoneSummary, error) {
	var zones []ZoneSummary
	input := &route53.ListHostedZonesInput{}
	for {
		out, err := s.Route53.ListHostedZones(ctx, input)
		if err != nil {
			return nil, &models.ProviderError{Service: "route53", Operation: "ListHostedZones", Cause: err}
		}
		for _, hz := range out.HostedZones {
			id := zoneID(awssdk.ToString(hz.Id))
			tags := s.zoneTags(ctx, id)
			if tags[config.AttributionKey] != config.AttributionValue {
				continue
			}
			if owner != "" && tags[config.OwnerKey] != owner {
				continue
			}
			zones = append(zones, ZoneSummary{ID: id, Name: awssdk.ToString(hz.Name)})
		}
		if !out.IsTruncated {
			return zones, nil
		}
		input.Marker = out.NextMarker
	}
}

// CreateZoneOptions carries the validated inputs of `route53 create-zone`.
type CreateZoneOptions struct {
	Name    string
	Comment string
	Owner   string
	Project string
	Env     string
}

// CreateZone creates a public hosted zone and tags it. Tagging after a
// successful creation is best-effort.
func (s *Session) CreateZone(ctx context.Context, opts CreateZoneOptions) (string, []models.StepResult, error) {
	tags, err := config.BuildTags(opts.Owner, opts.Project, opts.Env)
	if err != nil {
		return "", nil, &models.ValidationError{Field: "owner", Value: opts.Owner, Expected: "non-empty string"}
	}

	suffix, err := utils.GenerateRandomSuffix()
	if err != nil {
		return "", nil, fmt.Errorf("generate caller reference: %w", err)
	}
	callerRef := fmt.Sprintf("platform-cli-%d-%s", time.Now().UnixNano(), suffix)

	out, err := s.Route53.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            awssdk.String(NormalizeDNSName(opts.Name)),
		CallerReference: awssdk.String(callerRef),
		HostedZoneConfig: &r53types.HostedZoneConfig{
			Comment:     awssdk.String(opts.Comment),
			PrivateZone: false,
		},
	})
	if err != nil {
		return "", nil, &models.ProviderError{Service: "route53", Operation: "CreateHostedZone", Resource: opts.Name, Cause: err}
	}
	id := zoneID(awssdk.ToString(out.HostedZone.Id))

	_, err = s.Route53.ChangeTagsForResource(ctx, &route53.ChangeTagsForResourceInput{
		ResourceType: r53types.TagResourceTypeHostedzone,
		ResourceId:   awssdk.String(id),
		AddTags:      config.Route53Tags(tags),
	})
	steps := []models.StepResult{{Step: "tagging", Err: err}}

	return id, steps, nil
}

// RecordSummary is one row of `route53 list-records`.
type RecordSummary struct {
	Name   string
	Type   string
	TTL    int64
	Values []string
}

// ListRecords enumerates all record sets in an attribution-tagged zone.
func (s *Session) ListRecords(ctx context.Context, id string) ([]RecordSummary, error) {
	if err := s.authorizeZone(ctx, id); err != nil {
		return nil, err
	}

	var records []RecordSummary
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: awssdk.String(id)}
	for {
		out, err := s.Route53.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, &models.ProviderError{Service: "route53", Operation: "ListResourceRecordSets", Resource: id, Cause: err}
		}
		for _, rs := range out.ResourceRecordSets {
			rec := RecordSummary{
				Name: awssdk.ToString(rs.Name),
				Type: string(rs.Type),
				TTL:  awssdk.ToInt64(rs.TTL),
			}
			for _, rr := range rs.ResourceRecords {
				rec.Values = append(rec.Values, awssdk.ToString(rr.Value))
			}
			records = append(records, rec)
		}
		if !out.IsTruncated {
			return records, nil
		}
		input.StartRecordName = out.NextRecordName
		input.StartRecordType = out.NextRecordType
		input.StartRecordIdentifier = out.NextRecordIdentifier
	}
}

// RecordChange identifies one record mutation: name and type form the
// composite key, value and TTL complete the tuple.
type RecordChange struct {
	ZoneID string
	Name   string
	Type   string
	Value  string
	TTL    int64
}

// changeRecord issues a single-change batch for the record tuple.
func (s *Session) changeRecord(ctx context.Context, action r53types.ChangeAction, c RecordChange) (string, error) {
	if !RecordTypeAllowed(c.Type) {
		return "", &models.ValidationError{Field: "record type", Value: c.Type, Expected: strings.Join(RecordTypes, ", ")}
	}
	if err := s.authorizeZone(ctx, c.ZoneID); err != nil {
		return "", err
	}

	rtype := strings.ToUpper(c.Type)
	value := c.Value
	if rtype == "TXT" {
		value = QuoteTXTValue(value)
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}

	out, err := s.Route53.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: awssdk.String(c.ZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Comment: awssdk.String(zoneChangeComment),
			Changes: []r53types.Change{{
				Action: action,
				ResourceRecordSet: &r53types.ResourceRecordSet{
					Name:            awssdk.String(NormalizeDNSName(c.Name)),
					Type:            r53types.RRType(rtype),
					TTL:             awssdk.Int64(ttl),
					ResourceRecords: []r53types.ResourceRecord{{Value: awssdk.String(value)}},
				},
			}},
		},
	})
	if err != nil {
		return "", &models.ProviderError{Service: "route53", Operation: "ChangeResourceRecordSets", Resource: c.ZoneID, Cause: err}
	}
	return zoneID(awssdk.ToString(out.ChangeInfo.Id)), nil
}

// UpsertRecord creates or replaces the record keyed by (name, type).
// Issuing the same upsert twice converges to the same state without error.
func (s *Session) UpsertRecord(ctx context.Context, c RecordChange) (string, error) {
	return s.changeRecord(ctx, r53types.ChangeActionUpsert, c)
}

// DeleteRecord removes the record matching the exact name/type/TTL/value
// tuple; Route53 requires the full match to delete a specific value.
func (s *Session) DeleteRecord(ctx context.Context, c RecordChange) (string, error) {
	return s.changeRecord(ctx, r53types.ChangeActionDelete, c)
}
