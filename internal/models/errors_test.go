package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAmbiguousTargetErrorListsMatches(t *testing.T) {
	err := &AmbiguousTargetError{Name: "web", Matches: []string{"i-0aa", "i-0bb"}}
	msg := err.Error()
	if !strings.Contains(msg, "'web'") || !strings.Contains(msg, "2 instances") {
		t.Fatalf("message missing detail: %q", msg)
	}
	if !strings.Contains(msg, "i-0aa, i-0bb") {
		t.Fatalf("message missing matched IDs: %q", msg)
	}
}

func TestProviderErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := &ProviderError{Service: "ec2", Operation: "DescribeInstances", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("ProviderError must unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "ec2 error during DescribeInstances") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestConfigurationErrorMentionsProfile(t *testing.T) {
	err := &ConfigurationError{Profile: "prod", Cause: fmt.Errorf("not found")}
	if !strings.Contains(err.Error(), "profile 'prod'") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAuthorizationErrorNamesTag(t *testing.T) {
	err := &AuthorizationError{ResourceType: "bucket", Resource: "foreign"}
	if !strings.Contains(err.Error(), "CreatedBy=project-cli") {
		t.Fatalf("message must name the required tag: %q", err.Error())
	}
}

func TestStepResultRendering(t *testing.T) {
	ok := StepResult{Step: "tagging"}
	if !ok.OK() || ok.String() != "tagging: ok" {
		t.Fatalf("unexpected rendering %q", ok.String())
	}
	failed := StepResult{Step: "tagging", Err: fmt.Errorf("denied")}
	if failed.OK() || !strings.HasPrefix(failed.String(), "WARNING: tagging failed") {
		t.Fatalf("unexpected rendering %q", failed.String())
	}
}

func TestWarningsFiltersFailures(t *testing.T) {
	steps := []StepResult{
		{Step: "a"},
		{Step: "b", Err: fmt.Errorf("x")},
		{Step: "c"},
	}
	warnings := Warnings(steps)
	if len(warnings) != 1 || warnings[0].Step != "b" {
		t.Fatalf("Warnings = %+v", warnings)
	}
}
