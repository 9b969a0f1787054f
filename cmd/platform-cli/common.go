package main

import (
	"github.com/urfave/cli/v2"

	awscloud "github.com/platform-tools/platform-cli/internal/cloud/aws"
)

// newSession builds one session per command invocation from --profile and
// (where the command defines it) --region.
func newSession(c *cli.Context) (*awscloud.Session, error) {
	var opts []awscloud.SessionOption
	if p := c.String("profile"); p != "" {
		opts = append(opts, awscloud.WithProfile(p))
	}
	if r := c.String("region"); r != "" {
		opts = append(opts, awscloud.WithRegion(r))
	}
	return awscloud.NewSession(c.Context, opts...)
}

func profileFlag() cli.Flag {
	return &cli.StringFlag{Name: "profile", Usage: "AWS credential profile name"}
}

func regionFlag() cli.Flag {
	return &cli.StringFlag{Name: "region", Usage: "AWS region (e.g., us-east-1)"}
}

func ownerFlag(usage string) cli.Flag {
	return &cli.StringFlag{Name: "owner", Usage: usage}
}
