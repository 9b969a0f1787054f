package aws

import (
	"context"
	"regexp"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

// instanceIDPattern matches EC2 instance identifiers: the legacy 8-hex and
// the current 17-hex form. Anything else is treated as a Name tag value.
var instanceIDPattern = regexp.MustCompile(`^i-[0-9a-f]{8}([0-9a-f]{9})?$`)

// TokenKind classifies a user-supplied target token.
type TokenKind int

const (
	TokenInstanceID TokenKind = iota
	TokenName
)

// ClassifyToken decides whether a token is a structured instance ID or a
// human-friendly name. Empty tokens classify as names; callers reject them
// during argument validation.
func ClassifyToken(token string) TokenKind {
	if instanceIDPattern.MatchString(token) {
		return TokenInstanceID
	}
	return TokenName
}

// ResolveName queries for instances carrying both the attribution tag and a
// Name tag equal to name. Zero, one or many matches are all normal outcomes.
// Terminated instances are excluded so a recycled name does not resolve to
// a corpse.
func (s *Session) ResolveName(ctx context.Context, name string) ([]string, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: awssdk.String("tag:" + config.AttributionKey), Values: []string{config.AttributionValue}},
			{Name: awssdk.String("tag:" + config.NameKey), Values: []string{name}},
			{Name: awssdk.String("instance-state-name"), Values: []string{"pending", "running", "stopping", "stopped"}},
		},
	}

	var ids []string
	for {
		out, err := s.EC2.DescribeInstances(ctx, input)
		if err != nil {
			return nil, &models.ProviderError{Service: "ec2", Operation: "DescribeInstances", Resource: name, Cause: err}
		}
		for _, r := range out.Reservations {
			for _, inst := range r.Instances {
				ids = append(ids, awssdk.ToString(inst.InstanceId))
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}
	return ids, nil
}

// Resolution is the outcome of resolving a mixed list of tokens.
type Resolution struct {
	IDs       []string            // de-duplicated, first-seen order
	Unmatched []string            // names that resolved to nothing
	ByName    map[string][]string // name -> matched IDs
}

// ResolveTokens classifies and resolves a mixed list of IDs and names.
func (s *Session) ResolveTokens(ctx context.Context, tokens []string) (*Resolution, error) {
	res := &Resolution{ByName: map[string][]string{}}
	seen := map[string]bool{}

	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			res.IDs = append(res.IDs, id)
		}
	}

	for _, tok := range tokens {
		if ClassifyToken(tok) == TokenInstanceID {
			add(tok)
			continue
		}
		ids, err := s.ResolveName(ctx, tok)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			res.Unmatched = append(res.Unmatched, tok)
			continue
		}
		res.ByName[tok] = ids
		for _, id := range ids {
			add(id)
		}
	}
	return res, nil
}

// ResolveSingle resolves a token that must name exactly one instance.
// More than one match is an AmbiguousTargetError; zero matches is a
// NothingToDoError for the given action.
func (s *Session) ResolveSingle(ctx context.Context, token, action string) (string, error) {
	if ClassifyToken(token) == TokenInstanceID {
		return token, nil
	}
	ids, err := s.ResolveName(ctx, token)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", &models.NothingToDoError{Action: action}
	case 1:
		return ids[0], nil
	default:
		return "", &models.AmbiguousTargetError{Name: token, Matches: ids}
	}
}
