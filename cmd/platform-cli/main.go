package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/urfave/cli/v2"

	"github.com/platform-tools/platform-cli/internal/models"
)

var debugMode bool

func main() {
	app := &cli.App{
		Name:  "platform-cli",
		Usage: "Provision and manage tagged EC2, S3 and Route53 resources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "AWS credential profile name (e.g., dev, prod)",
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Show the full error chain on failure",
				Destination: &debugMode,
			},
		},
		Commands: []*cli.Command{
			ec2Command(),
			s3Command(),
			route53Command(),
			statusCommand(),
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		reportError(err)
		os.Exit(2)
	}
}

// reportError maps any command failure to a one-line stderr message,
// distinguishing credential, connectivity and generic service problems.
// --debug additionally prints the full error chain.
func reportError(err error) {
	var aborted *models.Aborted
	if errors.As(err, &aborted) {
		fmt.Fprintln(os.Stderr, "Aborted.")
		return
	}

	switch {
	case isCredentialError(err):
		fmt.Fprintln(os.Stderr, "ERROR: No AWS credentials. Run `aws configure` or use --profile.")
		fmt.Fprintf(os.Stderr, "       %v\n", err)
	case isConnectivityError(err):
		fmt.Fprintln(os.Stderr, "ERROR: could not reach the AWS endpoint. Check your network and --region.")
		fmt.Fprintf(os.Stderr, "       %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	}

	if debugMode {
		fmt.Fprintln(os.Stderr, "--- error chain ---")
		for e := err; e != nil; e = errors.Unwrap(e) {
			fmt.Fprintf(os.Stderr, "  %T: %v\n", e, e)
		}
	}
}

func isCredentialError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "failed to retrieve credentials") ||
		strings.Contains(msg, "no EC2 IMDS role found") ||
		strings.Contains(msg, "static credentials are empty") ||
		strings.Contains(msg, "failed to refresh cached credentials")
}

func isConnectivityError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		msg := opErr.Error()
		return strings.Contains(msg, "dial tcp") || strings.Contains(msg, "no such host")
	}
	return false
}
