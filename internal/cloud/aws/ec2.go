package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

// AllowedInstanceTypes is the fixed size-class allow-list. A hardcoded
// policy value, not configuration.
var AllowedInstanceTypes = []string{"t2.small", "t3.micro"}

// MaxActiveInstances caps how many running+pending instances this CLI may
// have at once.
const MaxActiveInstances = 2

// amiProbes lists the public SSM parameters tried per OS family, in order.
var amiProbes = map[string][]string{
	"ubuntu": {
		"/aws/service/canonical/ubuntu/server/24.04/stable/current/amd64/hvm/ebs-gp3/ami-id",
		"/aws/service/canonical/ubuntu/server/22.04/stable/current/amd64/hvm/ebs-gp2/ami-id",
	},
	"amzn": {
		"/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp3",
		"/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2",
	},
}

// InstanceTypeAllowed reports whether t is in the allow-list.
func InstanceTypeAllowed(t string) bool {
	for _, allowed := range AllowedInstanceTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// InstanceSummary is one row of `ec2 list`.
type InstanceSummary struct {
	ID    string
	State string
	Type  string
	Name  string
}

// InstanceDetail is the fixed-order field report of `ec2 describe`.
type InstanceDetail struct {
	ID         string
	State      string
	Type       string
	AZ         string
	LaunchTime time.Time
	Name       string
	PublicIP   string
	PrivateIP  string
	Tags       []config.Tag // sorted by key
}

func tagValue(tags []ec2types.Tag, key string) string {
	for _, t := range tags {
		if awssdk.ToString(t.Key) == key {
			return awssdk.ToString(t.Value)
		}
	}
	return ""
}

// describeTagged pages through DescribeInstances with the attribution
// filter, an optional owner filter and optional extra state filter,
// invoking fn per instance in discovery order.
func (s *Session) describeTagged(ctx context.Context, owner string, states []string, fn func(ec2types.Instance)) error {
	filters := []ec2types.Filter{
		{Name: awssdk.String("tag:" + config.AttributionKey), Values: []string{config.AttributionValue}},
	}
	if owner != "" {
		filters = append(filters, ec2types.Filter{Name: awssdk.String("tag:" + config.OwnerKey), Values: []string{owner}})
	}
	if len(states) > 0 {
		filters = append(filters, ec2types.Filter{Name: awssdk.String("instance-state-name"), Values: states})
	}
	input := &ec2.DescribeInstancesInput{Filters: filters}
	for {
		out, err := s.EC2.DescribeInstances(ctx, input)
		if err != nil {
			return &models.ProviderError{Service: "ec2", Operation: "DescribeInstances", Cause: err}
		}
		for _, r := range out.Reservations {
			for _, inst := range r.Instances {
				fn(inst)
			}
		}
		if out.NextToken == nil {
			return nil
		}
		input.NextToken = out.NextToken
	}
}

// ListInstances returns all attribution-tagged instances, optionally
// filtered by owner, in discovery order.
func (s *Session) ListInstances(ctx context.Context, owner string) ([]InstanceSummary, error) {
	var rows []InstanceSummary
	err := s.describeTagged(ctx, owner, nil, func(inst ec2types.Instance) {
		rows = append(rows, InstanceSummary{
			ID:    awssdk.ToString(inst.InstanceId),
			State: string(inst.State.Name),
			Type:  string(inst.InstanceType),
			Name:  tagValue(inst.Tags, config.NameKey),
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActiveInstances counts attribution-tagged instances in running or
// pending state.
func (s *Session) CountActiveInstances(ctx context.Context) (int, error) {
	count := 0
	err := s.describeTagged(ctx, "", []string{"running", "pending"}, func(ec2types.Instance) {
		count++
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ResolveImage resolves the latest AMI for an OS family by probing public
// SSM parameters in order and taking the first that resolves.
func (s *Session) ResolveImage(ctx context.Context, osName string) (string, error) {
	probes, ok := amiProbes[osName]
	if !ok {
		return "", &models.ValidationError{Field: "os", Value: osName, Expected: "amzn or ubuntu"}
	}
	var lastErr error
	for _, name := range probes {
		out, err := s.SSM.GetParameter(ctx, &ssm.GetParameterInput{Name: awssdk.String(name)})
		if err != nil {
			lastErr = err
			continue
		}
		if out.Parameter != nil && out.Parameter.Value != nil {
			return *out.Parameter.Value, nil
		}
		lastErr = fmt.Errorf("parameter %s resolved empty", name)
	}
	return "", &models.ImageResolutionError{Probes: probes, Cause: lastErr}
}

// CreateInstanceOptions carries the validated inputs of `ec2 create`.
type CreateInstanceOptions struct {
	OS           string
	InstanceType string
	Name         string // generated when empty
	KeyName      string // no key pair when empty
	KeyType      string // "rsa" (default) or "ed25519"
	KeyDir       string // private key destination, defaults to ~/.ssh
	ConfirmKey   func(name string) error // gates creation of new key material
	Owner        string
	Project      string
	Env          string
	DryRun       bool
}

// CreateInstanceResult reports the outcome of `ec2 create`.
type CreateInstanceResult struct {
	InstanceID     string
	ImageID        string
	Name           string
	KeyCreated     bool
	PrivateKeyPath string
	DryRun         bool
}

// CreateInstance enforces the size allow-list and the active-instance cap,
// resolves the AMI, optionally ensures a key pair, then issues exactly one
// RunInstances call.
func (s *Session) CreateInstance(ctx context.Context, opts CreateInstanceOptions) (*CreateInstanceResult, error) {
	if !InstanceTypeAllowed(opts.InstanceType) {
		return nil, &models.ValidationError{
			Field:    "instance type",
			Value:    opts.InstanceType,
			Expected: fmt.Sprintf("one of %v", AllowedInstanceTypes),
		}
	}

	active, err := s.CountActiveInstances(ctx)
	if err != nil {
		return nil, err
	}
	if active >= MaxActiveInstances {
		return nil, &models.CapacityError{Active: active, Limit: MaxActiveInstances}
	}

	imageID, err := s.ResolveImage(ctx, opts.OS)
	if err != nil {
		return nil, err
	}

	tags, err := config.BuildTags(opts.Owner, opts.Project, opts.Env)
	if err != nil {
		return nil, &models.ValidationError{Field: "owner", Value: opts.Owner, Expected: "non-empty string"}
	}

	result := &CreateInstanceResult{ImageID: imageID, Name: opts.Name, DryRun: opts.DryRun}

	if opts.KeyName != "" && !opts.DryRun {
		created, keyPath, err := s.EnsureKeyPair(ctx, opts.KeyName, opts.KeyType, opts.KeyDir, tags, opts.ConfirmKey)
		if err != nil {
			return nil, err
		}
		result.KeyCreated = created
		result.PrivateKeyPath = keyPath
	}

	instanceTags := append(tags, config.Tag{Key: config.NameKey, Value: opts.Name})
	input := &ec2.RunInstancesInput{
		ImageId:      awssdk.String(imageID),
		InstanceType: ec2types.InstanceType(opts.InstanceType),
		MinCount:     awssdk.Int32(1),
		MaxCount:     awssdk.Int32(1),
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeInstance,
			Tags:         config.EC2Tags(instanceTags),
		}},
	}
	if opts.KeyName != "" {
		input.KeyName = awssdk.String(opts.KeyName)
	}
	if opts.DryRun {
		input.DryRun = awssdk.Bool(true)
	}

	out, err := s.EC2.RunInstances(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if opts.DryRun && errors.As(err, &apiErr) && apiErr.ErrorCode() == "DryRunOperation" {
			result.InstanceID = "(dry-run)"
			return result, nil
		}
		return nil, &models.ProviderError{Service: "ec2", Operation: "RunInstances", Cause: err}
	}
	if opts.DryRun {
		result.InstanceID = "(dry-run)"
		return result, nil
	}
	if len(out.Instances) == 0 {
		return nil, &models.ProviderError{Service: "ec2", Operation: "RunInstances",
			Cause: fmt.Errorf("no instance in response")}
	}
	result.InstanceID = awssdk.ToString(out.Instances[0].InstanceId)
	return result, nil
}

// getInstance fetches a single instance by ID.
func (s *Session) getInstance(ctx context.Context, id string) (*ec2types.Instance, error) {
	out, err := s.EC2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return nil, &models.ProviderError{Service: "ec2", Operation: "DescribeInstances", Resource: id, Cause: err}
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if awssdk.ToString(inst.InstanceId) == id {
				inst := inst
				return &inst, nil
			}
		}
	}
	return nil, &models.ProviderError{Service: "ec2", Operation: "DescribeInstances", Resource: id,
		Cause: fmt.Errorf("instance not found")}
}

// authorizeInstance re-reads the instance immediately before a mutation and
// refuses unless it carries the attribution tag. Not atomic with the
// mutation that follows; the gap is an accepted limitation.
func (s *Session) authorizeInstance(ctx context.Context, id string) (*ec2types.Instance, error) {
	inst, err := s.getInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if tagValue(inst.Tags, config.AttributionKey) != config.AttributionValue {
		return nil, &models.AuthorizationError{ResourceType: "instance", Resource: id}
	}
	return inst, nil
}

// StartInstance starts one attribution-tagged instance.
func (s *Session) StartInstance(ctx context.Context, id string) error {
	if _, err := s.authorizeInstance(ctx, id); err != nil {
		return err
	}
	_, err := s.EC2.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return &models.ProviderError{Service: "ec2", Operation: "StartInstances", Resource: id, Cause: err}
	}
	return nil
}

// StopInstance stops one attribution-tagged instance. force is threaded
// through to the provider unchanged.
func (s *Session) StopInstance(ctx context.Context, id string, force bool) error {
	if _, err := s.authorizeInstance(ctx, id); err != nil {
		return err
	}
	input := &ec2.StopInstancesInput{InstanceIds: []string{id}}
	if force {
		input.Force = awssdk.Bool(true)
	}
	_, err := s.EC2.StopInstances(ctx, input)
	if err != nil {
		return &models.ProviderError{Service: "ec2", Operation: "StopInstances", Resource: id, Cause: err}
	}
	return nil
}

// PartitionAuthorized splits ids into those carrying the attribution tag
// and those that do not. Lookup failures count as unauthorized so a batch
// never mutates an instance it could not verify.
func (s *Session) PartitionAuthorized(ctx context.Context, ids []string) (authorized, unauthorized []string) {
	for _, id := range ids {
		if _, err := s.authorizeInstance(ctx, id); err != nil {
			unauthorized = append(unauthorized, id)
			continue
		}
		authorized = append(authorized, id)
	}
	return authorized, unauthorized
}

// StateChange is one row of the terminate report.
type StateChange struct {
	ID       string
	Previous string
	Current  string
}

// TerminateInstances issues a single batch terminate for ids.
func (s *Session) TerminateInstances(ctx context.Context, ids []string) ([]StateChange, error) {
	out, err := s.EC2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: ids})
	if err != nil {
		return nil, &models.ProviderError{Service: "ec2", Operation: "TerminateInstances", Cause: err}
	}
	var changes []StateChange
	for _, c := range out.TerminatingInstances {
		sc := StateChange{ID: awssdk.ToString(c.InstanceId)}
		if c.PreviousState != nil {
			sc.Previous = string(c.PreviousState.Name)
		}
		if c.CurrentState != nil {
			sc.Current = string(c.CurrentState.Name)
		}
		changes = append(changes, sc)
	}
	return changes, nil
}

// DescribeInstance returns the full detail report for one attribution-tagged
// instance.
func (s *Session) DescribeInstance(ctx context.Context, id string) (*InstanceDetail, error) {
	inst, err := s.authorizeInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &InstanceDetail{
		ID:        awssdk.ToString(inst.InstanceId),
		State:     string(inst.State.Name),
		Type:      string(inst.InstanceType),
		Name:      tagValue(inst.Tags, config.NameKey),
		PublicIP:  awssdk.ToString(inst.PublicIpAddress),
		PrivateIP: awssdk.ToString(inst.PrivateIpAddress),
	}
	if inst.Placement != nil {
		detail.AZ = awssdk.ToString(inst.Placement.AvailabilityZone)
	}
	if inst.LaunchTime != nil {
		detail.LaunchTime = *inst.LaunchTime
	}
	for _, t := range inst.Tags {
		detail.Tags = append(detail.Tags, config.Tag{Key: awssdk.ToString(t.Key), Value: awssdk.ToString(t.Value)})
	}
	sort.Slice(detail.Tags, func(i, j int) bool { return detail.Tags[i].Key < detail.Tags[j].Key })
	return detail, nil
}
