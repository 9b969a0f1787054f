package models

import (
	"fmt"
	"strings"
)

// ConfigurationError signals an unusable local configuration, most commonly
// a named profile unknown to the shared credential store.
type ConfigurationError struct {
	Profile string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Profile != "" {
		return fmt.Sprintf("profile '%s' not found; use --profile or set AWS_PROFILE: %v", e.Profile, e.Cause)
	}
	return fmt.Sprintf("configuration error: %v", e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// ValidationError signals rejected user input before any provider call.
type ValidationError struct {
	Field    string
	Value    string
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("invalid %s '%s' (expected: %s); see --help", e.Field, e.Value, e.Expected)
	}
	return fmt.Sprintf("invalid %s '%s'; see --help", e.Field, e.Value)
}

// CapacityError signals the running-instance cap was hit.
type CapacityError struct {
	Active int
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("limit reached: %d running/pending instances created by this CLI (max %d)", e.Active, e.Limit)
}

// ImageResolutionError signals every machine-image probe failed.
type ImageResolutionError struct {
	Probes []string
	Cause  error
}

func (e *ImageResolutionError) Error() string {
	return fmt.Sprintf("could not resolve AMI via SSM (tried %s): %v", strings.Join(e.Probes, ", "), e.Cause)
}

func (e *ImageResolutionError) Unwrap() error {
	return e.Cause
}

// AuthorizationError signals the target resource lacks the attribution tag.
type AuthorizationError struct {
	ResourceType string // "instance", "bucket", "hosted zone"
	Resource     string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s '%s' is not tagged CreatedBy=project-cli; refusing to modify", e.ResourceType, e.Resource)
}

// AmbiguousTargetError signals a name that resolved to more than one
// identifier in a single-target command.
type AmbiguousTargetError struct {
	Name    string
	Matches []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("name '%s' matches %d instances (%s); use an instance ID instead",
		e.Name, len(e.Matches), strings.Join(e.Matches, ", "))
}

// NothingToDoError signals that after filtering no eligible targets remain.
// Not treated as success: the operator asked for work that did not happen.
type NothingToDoError struct {
	Action string
}

func (e *NothingToDoError) Error() string {
	return fmt.Sprintf("nothing to %s: no eligible targets", e.Action)
}

// ProviderError wraps a failed AWS call with enough context to report a
// one-line message at the command boundary.
type ProviderError struct {
	Service   string // "ec2", "s3", "route53", "ssm", "sts"
	Operation string
	Resource  string
	Cause     error
}

func (e *ProviderError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s error during %s on '%s': %v", e.Service, e.Operation, e.Resource, e.Cause)
	}
	return fmt.Sprintf("%s error during %s: %v", e.Service, e.Operation, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Aborted signals a declined interactive confirmation. Reported without the
// usual ERROR prefix but still exits non-zero.
type Aborted struct{}

func (e *Aborted) Error() string {
	return "aborted"
}
