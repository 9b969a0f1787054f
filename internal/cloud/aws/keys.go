package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

// DefaultKeyDir returns the conventional destination for private keys.
func DefaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ssh"
	}
	return filepath.Join(home, ".ssh")
}

// EnsureKeyPair resolves a named key pair, creating it when absent. On
// creation the private key material is written once to keyDir/<name>.pem
// with owner-only permissions and never read back. The create call carries
// the same tag set as the instance it will serve. confirm, when non-nil,
// gates the creation of new key material.
//
// Returns whether a key was created and, if so, the private key path.
func (s *Session) EnsureKeyPair(ctx context.Context, name, keyType, keyDir string, tags []config.Tag, confirm func(name string) error) (bool, string, error) {
	_, err := s.EC2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{name}})
	if err == nil {
		return false, "", nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "InvalidKeyPair.NotFound" {
		return false, "", &models.ProviderError{Service: "ec2", Operation: "DescribeKeyPairs", Resource: name, Cause: err}
	}

	if confirm != nil {
		if err := confirm(name); err != nil {
			return false, "", err
		}
	}

	kt := ec2types.KeyTypeRsa
	switch keyType {
	case "", "rsa":
	case "ed25519":
		kt = ec2types.KeyTypeEd25519
	default:
		return false, "", &models.ValidationError{Field: "key type", Value: keyType, Expected: "rsa or ed25519"}
	}

	out, err := s.EC2.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
		KeyName: awssdk.String(name),
		KeyType: kt,
		TagSpecifications: []ec2types.TagSpecification{{
			ResourceType: ec2types.ResourceTypeKeyPair,
			Tags:         config.EC2Tags(tags),
		}},
	})
	if err != nil {
		return false, "", &models.ProviderError{Service: "ec2", Operation: "CreateKeyPair", Resource: name, Cause: err}
	}

	if keyDir == "" {
		keyDir = DefaultKeyDir()
	}
	keyPath, err := writePrivateKey(keyDir, name, awssdk.ToString(out.KeyMaterial))
	if err != nil {
		return true, "", fmt.Errorf("key pair '%s' created but private key not saved: %w", name, err)
	}
	return true, keyPath, nil
}

// writePrivateKey persists key material with owner-only permissions. The
// file must not already exist; a second write would clobber the only copy.
func writePrivateKey(dir, name, material string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".pem")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(material); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
