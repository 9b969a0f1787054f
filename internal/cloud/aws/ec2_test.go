package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

func ownedTags(extra map[string]string) map[string]string {
	tags := map[string]string{
		config.AttributionKey: config.AttributionValue,
		config.OwnerKey:       "alice",
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}

func ubuntuParams() map[string]string {
	return map[string]string{
		"/aws/service/canonical/ubuntu/server/24.04/stable/current/amd64/hvm/ebs-gp3/ami-id": "ami-24040000000000000",
		"/aws/service/canonical/ubuntu/server/22.04/stable/current/amd64/hvm/ebs-gp2/ami-id": "ami-22040000000000000",
	}
}

func TestInstanceTypeAllowed(t *testing.T) {
	for _, allowed := range []string{"t2.small", "t3.micro"} {
		if !InstanceTypeAllowed(allowed) {
			t.Errorf("expected %s to be allowed", allowed)
		}
	}
	for _, denied := range []string{"t3.small", "m5.large", "t2.SMALL", ""} {
		if InstanceTypeAllowed(denied) {
			t.Errorf("expected %s to be denied", denied)
		}
	}
}

func TestListInstancesFiltersByOwner(t *testing.T) {
	fake := &fakeEC2{}
	fake.instances = append(fake.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(map[string]string{config.NameKey: "alice-web"})),
		makeInstance("i-0bbbbbbbbbbbbbbb2", "stopped", "t2.small", map[string]string{
			config.AttributionKey: config.AttributionValue,
			config.OwnerKey:       "bob",
			config.NameKey:        "bob-db",
		}),
		makeInstance("i-0ccccccccccccccc3", "running", "m5.large", map[string]string{"Name": "foreign"}),
	)
	sess := newTestSession(fake, nil, nil, nil, nil)

	all, err := sess.ListInstances(context.Background(), "")
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tagged instances, got %d", len(all))
	}

	mine, err := sess.ListInstances(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListInstances(alice): %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "alice-web" {
		t.Fatalf("expected only alice-web, got %+v", mine)
	}
}

func TestCountActiveInstances(t *testing.T) {
	fake := &fakeEC2{}
	fake.instances = append(fake.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(nil)),
		makeInstance("i-0bbbbbbbbbbbbbbb2", "pending", "t3.micro", ownedTags(nil)),
		makeInstance("i-0ccccccccccccccc3", "stopped", "t3.micro", ownedTags(nil)),
		makeInstance("i-0ddddddddddddddd4", "running", "m5.large", map[string]string{"Name": "foreign"}),
	)
	sess := newTestSession(fake, nil, nil, nil, nil)

	count, err := sess.CountActiveInstances(context.Background())
	if err != nil {
		t.Fatalf("CountActiveInstances: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active, got %d", count)
	}
}

func TestResolveImageFallsBackThroughProbes(t *testing.T) {
	ssmFake := &fakeSSM{params: map[string]string{
		"/aws/service/canonical/ubuntu/server/22.04/stable/current/amd64/hvm/ebs-gp2/ami-id": "ami-22040000000000000",
	}}
	sess := newTestSession(nil, nil, nil, ssmFake, nil)

	ami, err := sess.ResolveImage(context.Background(), "ubuntu")
	if err != nil {
		t.Fatalf("ResolveImage: %v", err)
	}
	if ami != "ami-22040000000000000" {
		t.Fatalf("expected fallback AMI, got %s", ami)
	}
	if len(ssmFake.calls) != 2 {
		t.Fatalf("expected both probes tried in order, got %v", ssmFake.calls)
	}
}

func TestResolveImageAllProbesFail(t *testing.T) {
	sess := newTestSession(nil, nil, nil, &fakeSSM{}, nil)

	_, err := sess.ResolveImage(context.Background(), "amzn")
	var resErr *models.ImageResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ImageResolutionError, got %v", err)
	}
	if len(resErr.Probes) != 2 {
		t.Fatalf("expected both probe paths reported, got %v", resErr.Probes)
	}
}

func TestResolveImageUnknownOS(t *testing.T) {
	sess := newTestSession(nil, nil, nil, &fakeSSM{}, nil)

	_, err := sess.ResolveImage(context.Background(), "gentoo")
	var valErr *models.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateInstanceRejectsDisallowedType(t *testing.T) {
	fake := &fakeEC2{}
	sess := newTestSession(fake, nil, nil, &fakeSSM{params: ubuntuParams()}, nil)

	_, err := sess.CreateInstance(context.Background(), CreateInstanceOptions{
		OS: "ubuntu", InstanceType: "m5.large", Owner: "alice", Name: "alice-x1",
	})
	var valErr *models.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fake.runCalls != 0 {
		t.Fatalf("RunInstances must not be called on validation failure, got %d calls", fake.runCalls)
	}
}

func TestCreateInstanceEnforcesCapacity(t *testing.T) {
	fake := &fakeEC2{instances: nil}
	fake.instances = append(fake.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(nil)),
		makeInstance("i-0bbbbbbbbbbbbbbb2", "pending", "t3.micro", ownedTags(nil)),
	)
	sess := newTestSession(fake, nil, nil, &fakeSSM{params: ubuntuParams()}, nil)

	_, err := sess.CreateInstance(context.Background(), CreateInstanceOptions{
		OS: "ubuntu", InstanceType: "t3.micro", Owner: "alice", Name: "alice-x1",
	})
	var capErr *models.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Active != 2 || capErr.Limit != 2 {
		t.Fatalf("unexpected counts: %+v", capErr)
	}
	if fake.runCalls != 0 {
		t.Fatalf("RunInstances must not be called at capacity, got %d calls", fake.runCalls)
	}
}

func TestCreateInstanceRequiresOwner(t *testing.T) {
	fake := &fakeEC2{}
	sess := newTestSession(fake, nil, nil, &fakeSSM{params: ubuntuParams()}, nil)

	_, err := sess.CreateInstance(context.Background(), CreateInstanceOptions{
		OS: "ubuntu", InstanceType: "t3.micro", Name: "x1",
	})
	var valErr *models.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fake.runCalls != 0 {
		t.Fatalf("RunInstances must not be called without an owner")
	}
}

func TestCreateInstanceSuccess(t *testing.T) {
	fake := &fakeEC2{}
	sess := newTestSession(fake, nil, nil, &fakeSSM{params: ubuntuParams()}, nil)

	res, err := sess.CreateInstance(context.Background(), CreateInstanceOptions{
		OS: "ubuntu", InstanceType: "t3.micro", Owner: "alice", Project: "demo", Name: "alice-x1",
	})
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if res.InstanceID != "i-0123456789abcdef0" {
		t.Fatalf("unexpected instance id %s", res.InstanceID)
	}
	if res.ImageID != "ami-24040000000000000" {
		t.Fatalf("expected primary probe AMI, got %s", res.ImageID)
	}
	if fake.runCalls != 1 {
		t.Fatalf("expected exactly one RunInstances call, got %d", fake.runCalls)
	}

	spec := fake.lastRunInput.TagSpecifications
	if len(spec) != 1 {
		t.Fatalf("expected one tag specification, got %d", len(spec))
	}
	found := map[string]string{}
	for _, tag := range spec[0].Tags {
		found[*tag.Key] = *tag.Value
	}
	if found[config.AttributionKey] != config.AttributionValue {
		t.Errorf("attribution tag missing from launch request: %v", found)
	}
	if found[config.OwnerKey] != "alice" || found[config.NameKey] != "alice-x1" {
		t.Errorf("owner or name tag missing: %v", found)
	}
}

func TestCreateInstanceDryRun(t *testing.T) {
	fake := &fakeEC2{}
	sess := newTestSession(fake, nil, nil, &fakeSSM{params: ubuntuParams()}, nil)

	res, err := sess.CreateInstance(context.Background(), CreateInstanceOptions{
		OS: "ubuntu", InstanceType: "t3.micro", Owner: "alice", Name: "alice-x1", DryRun: true,
	})
	if err != nil {
		t.Fatalf("dry-run should succeed on DryRunOperation, got %v", err)
	}
	if res.InstanceID != "(dry-run)" {
		t.Fatalf("unexpected dry-run result %+v", res)
	}
	if fake.lastRunInput == nil || fake.lastRunInput.DryRun == nil || !*fake.lastRunInput.DryRun {
		t.Fatal("expected DryRun flag on the RunInstances request")
	}
}

func TestStartInstanceRefusesForeign(t *testing.T) {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0ccccccccccccccc3", "stopped", "t3.micro", map[string]string{"Name": "foreign"}),
	)
	sess := newTestSession(f, nil, nil, nil, nil)

	err := sess.StartInstance(context.Background(), "i-0ccccccccccccccc3")
	var authErr *models.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if len(f.startCalls) != 0 {
		t.Fatal("StartInstances must not be called for a foreign instance")
	}
}

func TestStartInstanceAuthorized(t *testing.T) {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "stopped", "t3.micro", ownedTags(nil)),
	)
	sess := newTestSession(f, nil, nil, nil, nil)

	if err := sess.StartInstance(context.Background(), "i-0aaaaaaaaaaaaaaa1"); err != nil {
		t.Fatalf("StartInstance: %v", err)
	}
	if len(f.startCalls) != 1 {
		t.Fatalf("expected one StartInstances call, got %d", len(f.startCalls))
	}
}

func TestStopInstanceForce(t *testing.T) {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(nil)),
	)
	sess := newTestSession(f, nil, nil, nil, nil)

	if err := sess.StopInstance(context.Background(), "i-0aaaaaaaaaaaaaaa1", true); err != nil {
		t.Fatalf("StopInstance: %v", err)
	}
	if !f.stopForce {
		t.Fatal("expected Force on the StopInstances request")
	}
}

func TestPartitionAuthorized(t *testing.T) {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(nil)),
		makeInstance("i-0ccccccccccccccc3", "running", "m5.large", map[string]string{"Name": "foreign"}),
	)
	sess := newTestSession(f, nil, nil, nil, nil)

	authorized, unauthorized := sess.PartitionAuthorized(context.Background(),
		[]string{"i-0aaaaaaaaaaaaaaa1", "i-0ccccccccccccccc3", "i-0eeeeeeeeeeeeeee5"})
	if len(authorized) != 1 || authorized[0] != "i-0aaaaaaaaaaaaaaa1" {
		t.Fatalf("unexpected authorized set %v", authorized)
	}
	// the unknown id failed its lookup and must land with the foreign one
	if len(unauthorized) != 2 {
		t.Fatalf("unexpected unauthorized set %v", unauthorized)
	}
}

func TestTerminateInstancesBatch(t *testing.T) {
	f := &fakeEC2{}
	sess := newTestSession(f, nil, nil, nil, nil)

	changes, err := sess.TerminateInstances(context.Background(),
		[]string{"i-0aaaaaaaaaaaaaaa1", "i-0bbbbbbbbbbbbbbb2"})
	if err != nil {
		t.Fatalf("TerminateInstances: %v", err)
	}
	if len(f.terminateCalls) != 1 {
		t.Fatalf("expected a single batch call, got %d", len(f.terminateCalls))
	}
	if len(changes) != 2 || changes[0].Current != "shutting-down" || changes[0].Previous != "running" {
		t.Fatalf("unexpected state changes %+v", changes)
	}
}

func TestDescribeInstanceSortsTags(t *testing.T) {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(map[string]string{
			config.NameKey: "alice-web",
			"Zed":          "last",
			"Alpha":        "first",
		})),
	)
	sess := newTestSession(f, nil, nil, nil, nil)

	detail, err := sess.DescribeInstance(context.Background(), "i-0aaaaaaaaaaaaaaa1")
	if err != nil {
		t.Fatalf("DescribeInstance: %v", err)
	}
	if detail.Name != "alice-web" || detail.AZ != "us-east-1a" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	for i := 1; i < len(detail.Tags); i++ {
		if detail.Tags[i-1].Key > detail.Tags[i].Key {
			t.Fatalf("tags not sorted by key: %+v", detail.Tags)
		}
	}
}
